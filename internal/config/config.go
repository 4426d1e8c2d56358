package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xYaper/Portal/internal/core/application"
	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/0xYaper/Portal/internal/core/ports"
	inmemorybank "github.com/0xYaper/Portal/internal/infrastructure/bank/inmemory"
	"github.com/0xYaper/Portal/internal/infrastructure/db"
	inmemoryregistry "github.com/0xYaper/Portal/internal/infrastructure/registry/inmemory"
	inmemorytransport "github.com/0xYaper/Portal/internal/infrastructure/transport/inmemory"
	staticvalidator "github.com/0xYaper/Portal/internal/infrastructure/validator/static"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	supportedEventDbs = supportedType{
		"badger": {},
	}
	supportedDbs = supportedType{
		"badger": {},
	}
	supportedRegistries = supportedType{
		"inmemory": {},
	}
	supportedTransports = supportedType{
		"inmemory": {},
	}
	supportedRoles = supportedType{
		application.RoleCustodian: {},
		application.RoleIssuer:    {},
	}
)

type Config struct {
	Datadir    string
	Port       uint32
	LogLevel   int
	AdminToken string

	Role          string
	ChainID       string
	RoleAddress   string
	TrustedChains []string

	DbType      string
	EventDbType string
	DbDir       string
	EventDbDir  string

	RegistryType  string
	TransportType string

	DeliveryCost        uint64
	RedeliveryInterval  int64
	FeeCollectorAddress string

	repo      ports.RepoManager
	registry  ports.AssetRegistry
	bank      ports.Bank
	hub       *inmemorytransport.Hub
	validator ports.TransferValidator
	svc       application.BridgeService
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}

func (c *Config) String() string {
	clone := *c
	if clone.AdminToken != "" {
		clone.AdminToken = "••••••"
	}
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	defaultDatadir            = dataDir("portald")
	DefaultPort               = 7080
	defaultLogLevel           = 4
	defaultRole               = application.RoleCustodian
	defaultChainID            = "origin"
	defaultDbType             = "badger"
	defaultEventDbType        = "badger"
	defaultRegistryType       = "inmemory"
	defaultTransportType      = "inmemory"
	defaultDeliveryCost       = 100
	defaultRedeliveryInterval = 5 // seconds
)

// env returns a list of strings prefixed with `PORTAL_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("PORTAL_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	Port = &cli.UintFlag{
		Usage: "Port to listen on",
		Name:  "port", EnvVars: env("PORT"),
		Value: uint(DefaultPort),
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	AdminToken = &cli.StringFlag{
		Usage: "Token required by the admin endpoints",
		Name:  "admin-token", EnvVars: env("ADMIN_TOKEN"),
	}

	Role = &cli.StringFlag{
		Usage: "Bridge role to run (custodian, issuer)",
		Name:  "role", EnvVars: env("ROLE"),
		Value: defaultRole,
	}

	ChainID = &cli.StringFlag{
		Usage: "Identifier of the ledger this daemon serves",
		Name:  "chain-id", EnvVars: env("CHAIN_ID"),
		Value: defaultChainID,
	}

	RoleAddress = &cli.StringFlag{
		Usage: "Address holding custody (custodian) or minting rights (issuer)",
		Name:  "role-address", EnvVars: env("ROLE_ADDRESS"),
	}

	TrustedChains = &cli.StringSliceFlag{
		Usage: "Chain ids whose inbound messages are accepted",
		Name:  "trusted-chain", EnvVars: env("TRUSTED_CHAIN"),
	}

	DbType = &cli.StringFlag{
		Usage: "Database type (badger)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	EventDbType = &cli.StringFlag{
		Usage: "Event database type (badger)",
		Name:  "event-db-type", EnvVars: env("EVENT_DB_TYPE"),
		Value: defaultEventDbType,
	}

	RegistryType = &cli.StringFlag{
		Usage: "Asset registry type (inmemory)",
		Name:  "registry-type", EnvVars: env("REGISTRY_TYPE"),
		Value: defaultRegistryType,
	}

	TransportType = &cli.StringFlag{
		Usage: "Message transport type (inmemory)",
		Name:  "transport-type", EnvVars: env("TRANSPORT_TYPE"),
		Value: defaultTransportType,
	}

	DeliveryCost = &cli.Uint64Flag{
		Usage: "Cost charged by the transport to deliver one message",
		Name:  "delivery-cost", EnvVars: env("DELIVERY_COST"),
		Value: uint64(defaultDeliveryCost),
	}

	RedeliveryInterval = &cli.Int64Flag{
		Usage: "Interval in seconds between transport redelivery attempts",
		Name:  "redelivery-interval", EnvVars: env("REDELIVERY_INTERVAL"),
		Value: int64(defaultRedeliveryInterval),
	}

	FeeCollectorAddress = &cli.StringFlag{
		Usage: "Address credited when the fee escrow is withdrawn",
		Name:  "fee-collector-address", EnvVars: env("FEE_COLLECTOR_ADDRESS"),
	}
)

var Flags = []cli.Flag{
	Datadir,
	Port,
	LogLevel,
	AdminToken,
	Role,
	ChainID,
	RoleAddress,
	TrustedChains,
	DbType,
	EventDbType,
	RegistryType,
	TransportType,
	DeliveryCost,
	RedeliveryInterval,
	FeeCollectorAddress,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	dbPath := filepath.Join(c.String(Datadir.Name), "db")

	return &Config{
		Datadir:             c.String(Datadir.Name),
		Port:                uint32(c.Uint(Port.Name)),
		LogLevel:            c.Int(LogLevel.Name),
		AdminToken:          c.String(AdminToken.Name),
		Role:                c.String(Role.Name),
		ChainID:             c.String(ChainID.Name),
		RoleAddress:         c.String(RoleAddress.Name),
		TrustedChains:       c.StringSlice(TrustedChains.Name),
		DbType:              c.String(DbType.Name),
		EventDbType:         c.String(EventDbType.Name),
		DbDir:               dbPath,
		EventDbDir:          dbPath,
		RegistryType:        c.String(RegistryType.Name),
		TransportType:       c.String(TransportType.Name),
		DeliveryCost:        c.Uint64(DeliveryCost.Name),
		RedeliveryInterval:  c.Int64(RedeliveryInterval.Name),
		FeeCollectorAddress: c.String(FeeCollectorAddress.Name),
	}, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

func dataDir(appName string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, "."+appName)
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf(
			"event db type not supported, please select one of: %s", supportedEventDbs,
		)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedRegistries.supports(c.RegistryType) {
		return fmt.Errorf(
			"registry type not supported, please select one of: %s", supportedRegistries,
		)
	}
	if !supportedTransports.supports(c.TransportType) {
		return fmt.Errorf(
			"transport type not supported, please select one of: %s", supportedTransports,
		)
	}
	if !supportedRoles.supports(c.Role) {
		return fmt.Errorf("role not supported, please select one of: %s", supportedRoles)
	}
	if c.ChainID == "" {
		return fmt.Errorf("missing chain id")
	}
	if c.RoleAddress == "" {
		return fmt.Errorf("missing role address")
	}
	if len(c.TrustedChains) == 0 {
		return fmt.Errorf("missing trusted chains, at least one is required")
	}
	if c.DeliveryCost == 0 {
		return fmt.Errorf("delivery cost must be greater than 0")
	}
	if c.RedeliveryInterval <= 0 {
		return fmt.Errorf("redelivery interval must be greater than 0")
	}
	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.registryService(); err != nil {
		return err
	}
	if err := c.transportService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) BridgeService() (application.BridgeService, error) {
	if c.svc == nil {
		if err := c.bridgeService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) RepoManager() ports.RepoManager {
	return c.repo
}

func (c *Config) AssetRegistry() ports.AssetRegistry {
	return c.registry
}

func (c *Config) TransportHub() *inmemorytransport.Hub {
	return c.hub
}

func (c *Config) repoManager() error {
	var eventStoreConfig []interface{}
	var dataStoreConfig []interface{}
	logger := log.New()

	switch c.EventDbType {
	case "badger":
		eventStoreConfig = []interface{}{c.EventDbDir, logger}
	default:
		return fmt.Errorf("unknown event db type")
	}

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) registryService() error {
	switch c.RegistryType {
	case "inmemory":
		c.registry = inmemoryregistry.NewRegistry()
	default:
		return fmt.Errorf("unknown registry type")
	}

	c.bank = inmemorybank.NewBank()
	c.validator = staticvalidator.NewValidator()
	return nil
}

func (c *Config) transportService() error {
	switch c.TransportType {
	case "inmemory":
		c.hub = inmemorytransport.NewHub(
			c.DeliveryCost, time.Duration(c.RedeliveryInterval)*time.Second,
		)
	default:
		return fmt.Errorf("unknown transport type")
	}
	return nil
}

func (c *Config) bridgeService() error {
	chainID := domain.ChainID(c.ChainID)
	roleAddr := domain.Address(c.RoleAddress)
	trustedChains := make([]domain.ChainID, 0, len(c.TrustedChains))
	for _, chain := range c.TrustedChains {
		trustedChains = append(trustedChains, domain.ChainID(chain))
	}

	switch c.Role {
	case application.RoleCustodian:
		c.svc = application.NewCustodianService(
			chainID, roleAddr, trustedChains,
			c.repo, c.registry, c.hub.Endpoint(chainID), c.bank,
		)
	case application.RoleIssuer:
		c.svc = application.NewIssuerService(
			chainID, roleAddr, trustedChains,
			c.repo, c.registry, c.hub.Endpoint(chainID), c.bank, c.validator,
		)
	default:
		return fmt.Errorf("unknown role")
	}
	return nil
}
