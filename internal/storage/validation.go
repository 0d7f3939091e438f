package storage

import (
	"context"
	"fmt"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context must not be nil")
	}
	return ctx.Err()
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	return nil
}

func validateMerchant(m *model.Merchant) error {
	if m == nil {
		return fmt.Errorf("merchant must not be nil")
	}
	if err := validateString(m.ID, "merchant ID"); err != nil {
		return err
	}
	if err := validateString(m.Name, "merchant name"); err != nil {
		return err
	}
	if m.ConfidenceWeight < 0 || m.ConfidenceWeight > 1 {
		return fmt.Errorf("merchant confidence weight must be in [0,1], got %f", m.ConfidenceWeight)
	}
	return nil
}

func validateAlert(a *model.Alert) error {
	if a == nil {
		return fmt.Errorf("alert must not be nil")
	}
	if err := validateString(a.ID, "alert ID"); err != nil {
		return err
	}
	if a.Level.Severity() < 0 {
		return fmt.Errorf("unknown alert level %q", a.Level)
	}
	return nil
}
