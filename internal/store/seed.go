package store

import (
	"context"
	"fmt"
	"log/slog"

	"pmtrack/internal/core"
)

var (
	seedTasks = []string{"Project admin", "2D drawings", "3D models", "ILR", "STP", "STR", "FWR", "CRs"}

	seedProjects = []struct{ designation, customer string }{
		{"DLH01", "Deutsche Lufthansa"},
		{"SWR01", "Swiss International Air Lines"},
	}
)

// Seed creates the administrator, the default tasks and two demo projects
// with nine units each. Every group is created only while its table is
// empty, so running Seed again changes nothing.
func Seed(ctx context.Context, s Store) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if len(users) == 0 {
		if _, err := s.CreateUser(ctx, core.User{Username: "admin", Email: "admin@example.com", Role: core.RoleAdmin}); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		slog.InfoContext(ctx, "Seeded administrator")
	}

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("seed tasks: %w", err)
	}
	if len(tasks) == 0 {
		for _, name := range seedTasks {
			if _, err := s.CreateTask(ctx, core.Task{Name: name}); err != nil {
				return fmt.Errorf("seed task %q: %w", name, err)
			}
		}
		slog.InfoContext(ctx, "Seeded tasks", "count", len(seedTasks))
	}

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}
	if len(projects) > 0 {
		return nil
	}
	rate := core.DefaultRate
	for i, sp := range seedProjects {
		p, err := s.CreateProject(ctx, core.Project{
			Designation:  sp.designation,
			CustomerName: sp.customer,
			Budget:       200000,
			Rate:         &rate,
		})
		if err != nil {
			return fmt.Errorf("seed project %s: %w", sp.designation, err)
		}
		for n := 1; n <= 9; n++ {
			u := core.Unit{
				ProjectID:  p.ID,
				PartNumber: fmt.Sprintf("110%d000-%d20", n, i),
				Name:       fmt.Sprintf("G%d", n),
			}
			if _, err := s.CreateUnit(ctx, u); err != nil {
				return fmt.Errorf("seed unit %s: %w", u.PartNumber, err)
			}
		}
	}
	slog.InfoContext(ctx, "Seeded demo projects", "count", len(seedProjects))
	return nil
}
