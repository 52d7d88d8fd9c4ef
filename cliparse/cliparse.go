package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Identity provider
	SupabaseURL string
	SupabaseKey string

	// Ledger; an empty RPCURL selects the in-memory development ledger
	RPCURL          string
	ContractAddress string
	ContractABI     string // Base64-encoded JSON
	AdminPrivateKey string
	GasTipGwei      int64
	GasCapGwei      int64

	AdminUserIDs    []string
	ListConcurrency int
}

// ParseFlags validates flags and falls back to environment variables
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var adminIDs string

	fs := flag.NewFlagSet("campus-ballot", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.SupabaseURL, "supabase-url", "", "Supabase project URL")
	fs.StringVar(&cfg.RPCURL, "rpc", "", "Ledger JSON-RPC URL (empty for in-memory ledger)")
	fs.StringVar(&cfg.ContractAddress, "contract", "", "Voting contract address")
	fs.Int64Var(&cfg.GasTipGwei, "gas-tip", 0, "Max priority fee in gwei")
	fs.Int64Var(&cfg.GasCapGwei, "gas-cap", 0, "Max fee in gwei")
	fs.StringVar(&adminIDs, "admins", "", "Comma separated administrator user ids")
	fs.IntVar(&cfg.ListConcurrency, "list-concurrency", 0, "Elections fetched in parallel when listing")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SupabaseKey, "supabase-key", "", "Supabase service role key (prefer env)")
	fs.StringVar(&cfg.AdminPrivateKey, "ledger-key", "", "Ledger signing key (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.SupabaseURL == "" {
		cfg.SupabaseURL = os.Getenv("SUPABASE_URL")
	}
	if cfg.SupabaseURL == "" {
		return Config{}, errors.New("SUPABASE_URL required")
	}
	if cfg.SupabaseKey == "" {
		cfg.SupabaseKey = os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	}
	if cfg.SupabaseKey == "" {
		return Config{}, errors.New("SUPABASE_SERVICE_ROLE_KEY required")
	}

	if cfg.RPCURL == "" {
		cfg.RPCURL = os.Getenv("RPC_URL")
	}
	if cfg.ContractAddress == "" {
		cfg.ContractAddress = os.Getenv("CONTRACT_ADDRESS")
	}
	cfg.ContractABI = os.Getenv("CONTRACT_ABI")
	if cfg.AdminPrivateKey == "" {
		cfg.AdminPrivateKey = os.Getenv("ADMIN_PRIVATE_KEY")
	}
	if cfg.RPCURL != "" {
		if cfg.ContractAddress == "" {
			return Config{}, errors.New("CONTRACT_ADDRESS required when RPC_URL is set")
		}
		if cfg.AdminPrivateKey == "" {
			return Config{}, errors.New("ADMIN_PRIVATE_KEY required when RPC_URL is set")
		}
	}

	var err error
	if cfg.GasTipGwei, err = int64Env(cfg.GasTipGwei, "GAS_TIP_GWEI", 30); err != nil {
		return Config{}, err
	}
	if cfg.GasCapGwei, err = int64Env(cfg.GasCapGwei, "GAS_FEE_CAP_GWEI", 100); err != nil {
		return Config{}, err
	}
	if cfg.GasTipGwei > cfg.GasCapGwei {
		return Config{}, errors.New("gas tip must not exceed gas fee cap")
	}

	if cfg.ListConcurrency == 0 {
		n, err := int64Env(0, "LIST_CONCURRENCY", 8)
		if err != nil {
			return Config{}, err
		}
		cfg.ListConcurrency = int(n)
	}

	if adminIDs == "" {
		adminIDs = os.Getenv("ADMIN_USER_IDS")
	}
	for _, id := range strings.Split(adminIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
		}
	}

	return cfg, nil
}

// int64Env returns flagVal if set, else the env variable key, else def.
func int64Env(flagVal int64, key string, def int64) (int64, error) {
	if flagVal != 0 {
		return flagVal, nil
	}
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

// DebugString returns the configuration with secrets masked.
func (c Config) DebugString() string {
	ledgerDesc := "in-memory"
	if c.RPCURL != "" {
		ledgerDesc = c.RPCURL + " contract=" + c.ContractAddress
	}
	return fmt.Sprintf(
		"port=%d db=%s dsn=%s supabase=%s ledger=%s gas=%d/%d gwei admins=%d",
		c.Port,
		c.DatabaseType,
		maskDSN(c.DatabaseURL),
		c.SupabaseURL,
		ledgerDesc,
		c.GasTipGwei,
		c.GasCapGwei,
		len(c.AdminUserIDs),
	)
}

func maskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		u.User = url.User(u.User.Username())
		return u.String()
	}
	// Fallback for DSN as key-value list
	parts := strings.Fields(dsn)
	for i, p := range parts {
		if strings.HasPrefix(strings.ToLower(p), "password=") {
			parts[i] = "password=***"
		}
	}
	return strings.Join(parts, " ")
}
