package service

import (
	"context"

	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/domain/repository"
	"github.com/sinapseerp/engine/pkg/apperror"
)

// SettingsService exposes the single-row store configuration
type SettingsService struct {
	settingsRepo repository.SettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo repository.SettingsRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

// Get returns the store settings
func (s *SettingsService) Get(ctx context.Context) (*entity.StoreSettings, error) {
	return s.settingsRepo.Get(ctx)
}

// UpdateSettingsInput represents a partial settings update; nil fields are
// left untouched.
type UpdateSettingsInput struct {
	TradeName             *string  `json:"trade_name"`
	LegalName             *string  `json:"legal_name"`
	CNPJ                  *string  `json:"cnpj"`
	IE                    *string  `json:"ie"`
	StateCode             *int     `json:"state_code"`
	CityCode              *int     `json:"city_code"`
	TaxRegime             *string  `json:"tax_regime"`
	Environment           *int     `json:"environment"`
	Series                *int     `json:"series"`
	CSCToken              *string  `json:"csc_token"`
	CSCID                 *string  `json:"csc_id"`
	CertPath              *string  `json:"cert_path"`
	CertPassword          *string  `json:"cert_password"`
	EmitOnSettle          *bool    `json:"emit_on_settle"`
	DefaultNCM            *string  `json:"default_ncm"`
	DefaultCFOP           *string  `json:"default_cfop"`
	DefaultCSOSN          *string  `json:"default_csosn"`
	GoalStrategy          *string  `json:"goal_strategy"`
	GoalFactor            *float64 `json:"goal_factor"`
	Autopilot             *bool    `json:"autopilot"`
	AllowNegativeStock    *bool    `json:"allow_negative_stock"`
	CreditMonthlyInterest *float64 `json:"credit_monthly_interest"`
	CreditGraceDays       *int     `json:"credit_grace_days"`
}

// Update applies a partial update to the settings row
func (s *SettingsService) Update(ctx context.Context, input *UpdateSettingsInput) (*entity.StoreSettings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if input.GoalStrategy != nil {
		strategy := enum.GoalStrategy(*input.GoalStrategy)
		switch strategy {
		case enum.GoalStrategyCoefficient, enum.GoalStrategyPercentage, enum.GoalStrategyFixedValue:
			settings.GoalStrategy = strategy
		default:
			return nil, apperror.NewBadRequestError("Unknown goal strategy")
		}
	}
	if input.Environment != nil {
		if *input.Environment != 1 && *input.Environment != 2 {
			return nil, apperror.NewBadRequestError("Environment must be 1 (production) or 2 (homologation)")
		}
		settings.Environment = *input.Environment
	}

	applyString(&settings.TradeName, input.TradeName)
	applyString(&settings.LegalName, input.LegalName)
	applyString(&settings.CNPJ, input.CNPJ)
	applyString(&settings.IE, input.IE)
	applyString(&settings.TaxRegime, input.TaxRegime)
	applyString(&settings.CSCToken, input.CSCToken)
	applyString(&settings.CSCID, input.CSCID)
	applyString(&settings.CertPath, input.CertPath)
	applyString(&settings.CertPassword, input.CertPassword)
	applyString(&settings.DefaultNCM, input.DefaultNCM)
	applyString(&settings.DefaultCFOP, input.DefaultCFOP)
	applyString(&settings.DefaultCSOSN, input.DefaultCSOSN)

	if input.StateCode != nil {
		settings.StateCode = *input.StateCode
	}
	if input.CityCode != nil {
		settings.CityCode = *input.CityCode
	}
	if input.Series != nil {
		settings.Series = *input.Series
	}
	if input.EmitOnSettle != nil {
		settings.EmitOnSettle = *input.EmitOnSettle
	}
	if input.GoalFactor != nil {
		settings.GoalFactor = *input.GoalFactor
	}
	if input.Autopilot != nil {
		settings.Autopilot = *input.Autopilot
	}
	if input.AllowNegativeStock != nil {
		settings.AllowNegativeStock = *input.AllowNegativeStock
	}
	if input.CreditMonthlyInterest != nil {
		settings.CreditMonthlyInterest = *input.CreditMonthlyInterest
	}
	if input.CreditGraceDays != nil {
		settings.CreditGraceDays = *input.CreditGraceDays
	}

	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
