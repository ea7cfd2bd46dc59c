package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.RWMutex
	cache  = make(map[string]any)
	dotenv sync.Once
)

// Load populates the given configuration struct from environment variables
// using `env:` struct tags. The first call in the process also loads a .env
// file if one exists. Each configuration type is parsed once; subsequent
// calls for the same type return the cached value so that every package
// sees the same configuration regardless of load order.
//
// Example:
//
//	type Config struct {
//		Addr   string `env:"HTTP_ADDR" envDefault:":8080"`
//		Secret string `env:"TURNSTILE_SECRET_KEY,required"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenv.Do(func() {
		// A missing .env file is fine; real environments set variables directly.
		_ = godotenv.Load()
	})

	name := typeName[T]()

	mu.RLock()
	if cached, ok := cache[name]; ok {
		*v = cached.(T)
		mu.RUnlock()
		return nil
	}
	mu.RUnlock()

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if cached, ok := cache[name]; ok {
		// Another goroutine parsed the same type first; use its value.
		*v = cached.(T)
		return nil
	}
	cache[name] = *v
	return nil
}

// MustLoad works like Load but panics on failure. Intended for configuration
// the service cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
