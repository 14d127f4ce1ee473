package config

import (
	"fmt"
	"time"

	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
)

// ValidateConfig validates a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// ValidateOptions checks the plugin options that must hold at construction.
func ValidateOptions(opts *Options) error {
	if opts == nil || len(opts.Pages) == 0 {
		return foundationerrors.ConfigError("`pages` is a mandatory field!").Build()
	}
	if opts.Concurrency < 0 {
		return foundationerrors.ValidationError(fmt.Sprintf("concurrency must be >= 0, got %d", opts.Concurrency)).
			WithContext("concurrency", opts.Concurrency).
			Build()
	}
	return nil
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateBuild(); err != nil {
		return err
	}
	if err := ValidateOptions(&cv.config.StaticRender); err != nil {
		return err
	}
	return cv.validateWatch()
}

func (cv *configurationValidator) validateBuild() error {
	b := cv.config.Build
	if b.Entry.IsZero() {
		return foundationerrors.ValidationError("build.entry must be specified").Build()
	}
	for _, name := range b.Entry.Keys() {
		if len(b.Entry.Named[name]) == 0 {
			return foundationerrors.ValidationError(fmt.Sprintf("build.entry %q has no paths", name)).
				WithContext("entry", name).
				Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if w.Debounce == "" {
		return nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryValidation, fmt.Sprintf("invalid watch.debounce %q", w.Debounce)).
			Fatal().
			Build()
	}
	if d <= 0 {
		return foundationerrors.ValidationError(fmt.Sprintf("watch.debounce must be positive, got %s", w.Debounce)).Build()
	}
	return nil
}
