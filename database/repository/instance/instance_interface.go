package instanceRepo

import "bookline/models"

// InstanceRepository defines methods for tenant configuration access.
type InstanceRepository interface {
	// Create inserts a new instance record.
	Create(inst *models.Instance) error
	// GetByID retrieves an instance by its unique ID.
	GetByID(id string) (*models.Instance, error)
	// GetByWebhookPath retrieves an active instance by its webhook path.
	GetByWebhookPath(path string) (*models.Instance, error)
	// GetAll retrieves all instances.
	GetAll() ([]models.Instance, error)
	// Update modifies an existing instance record.
	Update(inst *models.Instance) error
	// Delete removes an instance record by its ID.
	Delete(id string) error
}
