package validation

import (
	"github.com/nzoschke/cadence/internal/model"
)

func ValidateTask(task *model.Task) error {
	var c Collector

	c.Add(ValidateRequired("title", task.Title))
	c.Add(ValidateMaxLength("title", task.Title, MaxTitleLength))
	c.Add(ValidateMaxLength("description", task.Description, MaxDescriptionLength))
	c.Add(ValidateMaxLength("category", task.Category, MaxCategoryLength))
	c.Add(ValidateOneOf("status", task.Status,
		model.TaskStatusPending, model.TaskStatusInProgress, model.TaskStatusCompleted))

	if task.EnergyRequired != nil {
		c.Add(ValidateRange("energyRequired", *task.EnergyRequired, 1, 5))
	}
	if task.EstimatedDuration != nil {
		c.Add(ValidateRange("estimatedDuration", *task.EstimatedDuration, 1, 24*60))
	}

	return c.Err()
}
