package services

import (
	"errors"
	"io/fs"
	"log"
	"os"
)

// cleanupList collects best-effort compensation steps as an operation
// progresses and runs them in reverse order of registration. Failures
// are logged, never escalated.
type cleanupList struct {
	steps []cleanupStep
}

type cleanupStep struct {
	name string
	run  func() error
}

func newCleanupList() *cleanupList {
	return &cleanupList{}
}

func (c *cleanupList) add(name string, run func() error) {
	c.steps = append(c.steps, cleanupStep{name: name, run: run})
}

func (c *cleanupList) run() {
	for i := len(c.steps) - 1; i >= 0; i-- {
		if err := c.steps[i].run(); err != nil {
			log.Printf("Warning: cleanup step %q failed: %v", c.steps[i].name, err)
		}
	}
	c.steps = nil
}

// removeIfExists unlinks a file, treating absence as done.
func removeIfExists(path string) func() error {
	return func() error {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		return os.Remove(path)
	}
}
