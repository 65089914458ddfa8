// Package template holds the fixed manufacturing checklist and builds
// sub-job step lists from it.
package template

import (
	"fmt"
	"os"

	"fabtrack/core/models"

	"gopkg.in/yaml.v3"
)

// defaultStepNames is the fourteen-stage checklist every sub-job starts
// with, in production order.
var defaultStepNames = []string{
	"Raw material inspection",
	"Nesting",
	"Cutting",
	"H Beam",
	"Built up",
	"Fitup",
	"Fitup inspection",
	"Welding",
	"Finishing",
	"Finishing visual inspection",
	"Blasting",
	"Painting",
	"Painting inspection",
	"Ready For Dispatch - RFD",
}

// Checklist produces fresh step lists for new sub-jobs.
type Checklist struct {
	stepNames []string
}

// checklistFile is the YAML shape of a checklist override file
type checklistFile struct {
	Steps []string `yaml:"steps"`
}

// Default returns the built-in fourteen-step checklist.
func Default() *Checklist {
	return &Checklist{stepNames: defaultStepNames}
}

// Load reads a checklist override from a YAML file. An empty path returns
// the built-in checklist.
func Load(path string) (*Checklist, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist file: %w", err)
	}

	var file checklistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse checklist YAML: %w", err)
	}
	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("checklist file %s defines no steps", path)
	}

	return &Checklist{stepNames: file.Steps}, nil
}

// Len returns the number of steps in the checklist.
func (c *Checklist) Len() int {
	return len(c.stepNames)
}

// NewSteps returns a fresh, uncompleted step list.
func (c *Checklist) NewSteps() []models.Step {
	steps := make([]models.Step, len(c.stepNames))
	for i, name := range c.stepNames {
		steps[i] = models.Step{Name: name}
	}
	return steps
}

// NewSubJobs builds quantity-many sub-jobs for a job, each with a fresh
// step list. Sub-jobs are named "{job} V{n}" starting at V1.
func (c *Checklist) NewSubJobs(jobName string, quantity int) []models.SubJob {
	if quantity < 0 {
		quantity = 0
	}
	subJobs := make([]models.SubJob, quantity)
	for i := range subJobs {
		subJobs[i] = models.SubJob{
			Name:  fmt.Sprintf("%s V%d", jobName, i+1),
			Steps: c.NewSteps(),
		}
	}
	return subJobs
}

// ResizeSubJobs adjusts a sub-job list to a new quantity. Existing indices
// keep their step state, appended indices get fresh checklists, and a
// shrink truncates trailing sub-jobs along with their progress.
func (c *Checklist) ResizeSubJobs(jobName string, subJobs []models.SubJob, quantity int) []models.SubJob {
	if quantity < 0 {
		quantity = 0
	}
	if quantity <= len(subJobs) {
		return subJobs[:quantity]
	}

	resized := make([]models.SubJob, quantity)
	copy(resized, subJobs)
	for i := len(subJobs); i < quantity; i++ {
		resized[i] = models.SubJob{
			Name:  fmt.Sprintf("%s V%d", jobName, i+1),
			Steps: c.NewSteps(),
		}
	}
	return resized
}
