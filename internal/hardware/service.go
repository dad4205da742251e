package hardware

import (
	"log/slog"

	"github.com/dockhaven/dockhaven/internal/apperr"
	"github.com/dockhaven/dockhaven/internal/model"
	"gorm.io/gorm"
)

// Service owns the singleton HostConfig row.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewService creates a hardware Service.
func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// GetOrCreate returns the HostConfig singleton, detecting the hardware tier
// and inserting the row on first use. There is never a second row.
func (s *Service) GetOrCreate() (*model.HostConfig, error) {
	var cfg model.HostConfig
	err := s.db.First(&cfg).Error
	if err == nil {
		return &cfg, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	cores, ramGB, derr := Detect()
	if derr != nil {
		// Detection failure still needs a usable profile.
		s.logger.Warn("hardware detection failed, assuming medium server", "err", derr)
		cores, ramGB = 4, 8
	}
	tier := Classify(cores, ramGB)

	cfg = model.HostConfig{
		ProfileName:      tier.Name,
		CPUCores:         cores,
		RAMGB:            ramGB,
		MaxContainers:    tier.MaxContainers,
		WarningPercent:   80,
		CriticalPercent:  95,
		NetworkSizeLimit: tier.NetworkSizeLimit,
	}
	if err := s.db.Create(&cfg).Error; err != nil {
		return nil, err
	}
	s.logger.Info("hardware profile detected",
		"profile", tier.Name, "cores", cores, "ram_gb", ramGB)
	return &cfg, nil
}

// UpdateThresholds adjusts the utilization warning levels. Nil arguments are
// left unchanged; warning must stay below critical and both in 1..100.
func (s *Service) UpdateThresholds(warning, critical *int) (*model.HostConfig, error) {
	cfg, err := s.GetOrCreate()
	if err != nil {
		return nil, err
	}
	if warning != nil {
		cfg.WarningPercent = *warning
	}
	if critical != nil {
		cfg.CriticalPercent = *critical
	}
	if cfg.WarningPercent < 1 || cfg.CriticalPercent > 100 || cfg.WarningPercent >= cfg.CriticalPercent {
		return nil, apperr.Validation("thresholds must satisfy 1 <= warning < critical <= 100")
	}
	if err := s.db.Save(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}
