package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Network selects the chain the payment flow runs against.
type Network string

const (
	NetworkBaseMainnet Network = "base-mainnet"
	NetworkBaseSepolia Network = "base-sepolia"
)

// Default USDC deployments per supported network. Overridable via env so a
// fork or a future deployment does not require a rebuild.
const (
	usdcBaseMainnet = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	usdcBaseSepolia = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
)

// PaymentAmountBaseUnits is 1 USDC at 6 decimals.
const PaymentAmountBaseUnits = 1_000_000

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv     string
	Port       string
	AppBaseURL string

	// Optional: presence enables the Postgres payment ledger.
	DatabaseURL string

	// WalletConnect project identifier, forwarded to the web client.
	WalletConnectProjectID string

	Network         Network
	ChainID         int64
	ChainRPCURL     string
	PaymentContract string
	USDCContract    string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	ImageModel    string

	FarcasterHubURL string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Provider credentials are deliberately not validated
// here: a missing OPENAI_API_KEY fails the generation request, not startup.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		Port:                   port,
		AppBaseURL:             getEnv("APP_BASE_URL", "http://localhost:"+port),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		WalletConnectProjectID: os.Getenv("WALLETCONNECT_PROJECT_ID"),
		PaymentContract:        os.Getenv("PAYMENT_CONTRACT_ADDRESS"),
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4"),
		OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ImageModel:             getEnv("IMAGE_MODEL", "dall-e-3"),
		FarcasterHubURL:        getEnv("FARCASTER_HUB_URL", "https://hub.farcaster.standardcrypto.vc:2281"),
		HTTPReadTimeout:        time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:       time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:        time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:        getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	network, err := parseNetwork(getEnv("CHAIN_NETWORK", string(NetworkBaseMainnet)))
	if err != nil {
		return nil, err
	}
	cfg.Network = network
	switch network {
	case NetworkBaseSepolia:
		cfg.ChainID = 84532
		cfg.ChainRPCURL = getEnv("CHAIN_RPC_URL", "https://sepolia.base.org")
		cfg.USDCContract = getEnv("USDC_CONTRACT_ADDRESS", usdcBaseSepolia)
	default:
		cfg.ChainID = 8453
		cfg.ChainRPCURL = getEnv("CHAIN_RPC_URL", "https://mainnet.base.org")
		cfg.USDCContract = getEnv("USDC_CONTRACT_ADDRESS", usdcBaseMainnet)
	}

	if cfg.PaymentContract == "" {
		return nil, fmt.Errorf("PAYMENT_CONTRACT_ADDRESS is required")
	}

	return cfg, nil
}

func parseNetwork(raw string) (Network, error) {
	switch Network(strings.ToLower(strings.TrimSpace(raw))) {
	case NetworkBaseMainnet, "":
		return NetworkBaseMainnet, nil
	case NetworkBaseSepolia:
		return NetworkBaseSepolia, nil
	default:
		return "", fmt.Errorf("unsupported CHAIN_NETWORK %q", raw)
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
