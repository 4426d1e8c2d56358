package db

import (
	"fmt"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/0xYaper/Portal/internal/core/ports"
	badgerdb "github.com/0xYaper/Portal/internal/infrastructure/db/badger"
)

var (
	eventStoreTypes = map[string]func(...interface{}) (domain.EventRepository, error){
		"badger": badgerdb.NewEventRepository,
	}
	lockStoreTypes = map[string]func(...interface{}) (domain.LockRepository, error){
		"badger": badgerdb.NewLockRepository,
	}
	transferStoreTypes = map[string]func(...interface{}) (domain.TransferRepository, error){
		"badger": badgerdb.NewTransferRepository,
	}
	feeStoreTypes = map[string]func(...interface{}) (domain.FeeRepository, error){
		"badger": badgerdb.NewFeeRepository,
	}
	settingsStoreTypes = map[string]func(...interface{}) (domain.SettingsRepository, error){
		"badger": badgerdb.NewSettingsRepository,
	}
)

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	EventStoreConfig []interface{}
	DataStoreConfig  []interface{}
}

type service struct {
	eventStore    domain.EventRepository
	lockStore     domain.LockRepository
	transferStore domain.TransferRepository
	feeStore      domain.FeeRepository
	settingsStore domain.SettingsRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("event store type not supported")
	}
	lockStoreFactory, ok := lockStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	transferStoreFactory, ok := transferStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	feeStoreFactory, ok := feeStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	settingsStoreFactory, ok := settingsStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	eventStore, err := eventStoreFactory(config.EventStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}
	lockStore, err := lockStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock store: %s", err)
	}
	transferStore, err := transferStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open transfer store: %s", err)
	}
	feeStore, err := feeStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open fee store: %s", err)
	}
	settingsStore, err := settingsStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %s", err)
	}

	return &service{
		eventStore:    eventStore,
		lockStore:     lockStore,
		transferStore: transferStore,
		feeStore:      feeStore,
		settingsStore: settingsStore,
	}, nil
}

func (s *service) Events() domain.EventRepository {
	return s.eventStore
}

func (s *service) Locks() domain.LockRepository {
	return s.lockStore
}

func (s *service) Transfers() domain.TransferRepository {
	return s.transferStore
}

func (s *service) Fees() domain.FeeRepository {
	return s.feeStore
}

func (s *service) Settings() domain.SettingsRepository {
	return s.settingsStore
}

func (s *service) Close() {
	s.eventStore.Close()
	s.lockStore.Close()
	s.transferStore.Close()
	s.feeStore.Close()
	s.settingsStore.Close()
}
