// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package setting

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/platform/constants"
)

// Fallbacks used when a row is missing from the settings table.
const (
	DefaultClientVersion = "1.0.0"
	DefaultClientType    = "web"
)

// Service reads and writes instance settings.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new settings [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repository: repository, logger: logger}
}

// RegistrationOpen reports whether self-registration is enabled. A missing
// row means closed.
func (service *Service) RegistrationOpen(context context.Context) (bool, error) {
	raw, err := service.repository.Get(context, constants.SettingRegistrationOpen)
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	open, err := strconv.ParseBool(raw)
	if err != nil {
		service.logger.Warn("setting_value_invalid",
			slog.String("key", constants.SettingRegistrationOpen),
			slog.String("value", raw),
		)
		return false, nil
	}
	return open, nil
}

// SetRegistrationOpen persists the registration toggle.
func (service *Service) SetRegistrationOpen(context context.Context, open bool) error {
	if err := service.repository.Set(context, constants.SettingRegistrationOpen, strconv.FormatBool(open)); err != nil {
		return err
	}

	service.logger.Info("registration_toggled", slog.Bool("open", open))
	return nil
}

/*
ClientConfig returns the front-end configuration.

Returns:
  - *ClientConfig: Stored values, with defaults for missing rows
  - error: StoreFailure
*/
func (service *Service) ClientConfig(context context.Context) (*ClientConfig, error) {
	version, err := service.valueOr(context, constants.SettingClientVersion, DefaultClientVersion)
	if err != nil {
		return nil, err
	}

	clientType, err := service.valueOr(context, constants.SettingClientType, DefaultClientType)
	if err != nil {
		return nil, err
	}

	return &ClientConfig{ClientVersion: version, ClientType: clientType}, nil
}

func (service *Service) valueOr(context context.Context, key, fallback string) (string, error) {
	value, err := service.repository.Get(context, key)
	if apperr.IsNotFound(err) {
		return fallback, nil
	}
	return value, err
}
