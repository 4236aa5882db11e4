package ledger

import "time"

// Config parámetros de reintento y tiempos del motor.
type Config struct {
	MaxAttempts          int           // intentos por escritura condicional (incluye el primero)
	BackoffInitial       time.Duration // espera antes del primer reintento
	BackoffMax           time.Duration
	StoreTimeout         time.Duration // tope por llamada al almacén
	CompensationAttempts int
	CompensationTimeout  time.Duration
}

// DefaultConfig valores por defecto.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:          4,
		BackoffInitial:       10 * time.Millisecond,
		BackoffMax:           200 * time.Millisecond,
		StoreTimeout:         2 * time.Second,
		CompensationAttempts: 8,
		CompensationTimeout:  10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = d.BackoffInitial
	}
	if c.BackoffMax < c.BackoffInitial {
		c.BackoffMax = c.BackoffInitial
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = d.StoreTimeout
	}
	if c.CompensationAttempts <= 0 {
		c.CompensationAttempts = d.CompensationAttempts
	}
	if c.CompensationTimeout <= 0 {
		c.CompensationTimeout = d.CompensationTimeout
	}
	return c
}
