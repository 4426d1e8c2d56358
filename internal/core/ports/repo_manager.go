package ports

import "github.com/0xYaper/Portal/internal/core/domain"

type RepoManager interface {
	Locks() domain.LockRepository
	Transfers() domain.TransferRepository
	Fees() domain.FeeRepository
	Settings() domain.SettingsRepository
	Events() domain.EventRepository
	Close()
}
