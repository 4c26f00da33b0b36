package config

import "fmt"

// Require fails when any of the named values is empty.
func Require(values map[string]string) error {
	for name, v := range values {
		if v == "" {
			return fmt.Errorf("missing required env %s", name)
		}
	}
	return nil
}

func (c Config) Validate() error {
	if err := Require(map[string]string{"DATABASE_URL": c.DatabaseURL}); err != nil {
		return err
	}
	if len(c.AuthJWTSecret) == 0 && c.AuthJWTPublicKey == "" {
		return fmt.Errorf("missing required env AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY")
	}
	switch c.DatabaseDriver {
	case "pgx", "pq":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	return nil
}
