package entity

import (
	"github.com/sinapseerp/engine/internal/domain/enum"
	"time"
)

// StoreSettings is the single-row tenant fiscal configuration. Row 1 is
// created on startup if absent.
type StoreSettings struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TradeName string    `gorm:"size:255;default:'Minha Loja'" json:"trade_name"`
	LegalName string    `gorm:"size:255" json:"legal_name"`
	CNPJ      string    `gorm:"size:18" json:"cnpj"`
	IE        string    `gorm:"size:20" json:"ie"`
	StateCode int       `gorm:"default:41" json:"state_code"`
	CityCode  int       `gorm:"default:4106902" json:"city_code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Fiscal emission
	TaxRegime      string `gorm:"size:20;default:'simples'" json:"tax_regime"`
	Environment    int    `gorm:"default:2" json:"environment"` // 1=production, 2=homologation
	Series         int    `gorm:"default:1" json:"series"`
	CSCToken       string `gorm:"size:100" json:"-"`
	CSCID          string `gorm:"size:20" json:"-"`
	CertPath       string `gorm:"size:255" json:"-"`
	CertPassword   string `gorm:"size:255" json:"-"`
	EmitOnSettle   bool   `gorm:"default:true" json:"emit_on_settle"`
	DefaultNCM     string `gorm:"size:20;default:'21069090'" json:"default_ncm"`
	DefaultCFOP    string `gorm:"size:10;default:'5102'" json:"default_cfop"`
	DefaultCSOSN   string `gorm:"size:10;default:'102'" json:"default_csosn"`

	// Goal governor
	GoalStrategy enum.GoalStrategy `gorm:"size:20;default:'coefficient'" json:"goal_strategy"`
	GoalFactor   float64           `gorm:"default:2.1" json:"goal_factor"`
	Autopilot    bool              `gorm:"default:false" json:"autopilot"`

	// Sales policy
	AllowNegativeStock bool `gorm:"default:false" json:"allow_negative_stock"`

	// Store credit
	CreditMonthlyInterest float64 `gorm:"default:0" json:"credit_monthly_interest"` // % per month
	CreditGraceDays       int     `gorm:"default:0" json:"credit_grace_days"`
}

// HasSigningCredential reports whether real gateway emission is possible;
// without it transmission falls back to the local contingency simulation.
func (s *StoreSettings) HasSigningCredential() bool {
	return s.CertPath != "" && s.CertPassword != ""
}

// TableName returns the table name for the StoreSettings model
func (StoreSettings) TableName() string {
	return "store_settings"
}
