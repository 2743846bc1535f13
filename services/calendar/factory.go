package calendar

import (
	"context"
	"fmt"

	"bookline/models"
	"bookline/utils"
)

// NewProvider builds the calendar backend selected by the instance. This is
// the only place provider credentials are decrypted; callers receive the
// uniform Provider and never learn which variant they hold.
func NewProvider(ctx context.Context, inst *models.Instance) (Provider, error) {
	switch inst.CalendarProvider {
	case models.CalendarProviderGoogle:
		if inst.Google == nil {
			return nil, fmt.Errorf("instance %s has no google credentials", inst.ID)
		}
		saJSON, err := utils.DecryptString(inst.Google.ServiceAccountJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt google service account: %w", err)
		}
		return newGoogleProvider(ctx, []byte(saJSON), inst.Google.CalendarID)

	case models.CalendarProviderMicrosoft:
		if inst.Microsoft == nil {
			return nil, fmt.Errorf("instance %s has no microsoft credentials", inst.ID)
		}
		secret, err := utils.DecryptString(inst.Microsoft.ClientSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt microsoft client secret: %w", err)
		}
		return newMicrosoftProvider(ctx,
			inst.Microsoft.ClientID,
			inst.Microsoft.TenantID,
			secret,
			inst.Microsoft.Mailbox,
		), nil

	default:
		return nil, fmt.Errorf("unknown calendar provider %q", inst.CalendarProvider)
	}
}
