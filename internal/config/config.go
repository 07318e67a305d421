package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the fulfillment service needs at startup,
// including the base URL of every external collaborator. Collaborator
// addresses are injected as one explicit struct instead of being
// scattered per-field through the code.
type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	KafkaBrokers []string
	RedisAddr    string

	InventoryURL string
	WalletURL    string
	OfferURL     string
	DeliveryURL  string
	AddressURL   string
	CartURL      string
	CatalogURL   string

	ShopName string
	CODLimit float64
	TaxRate  float64
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "fulfillment"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		RedisAddr:    os.Getenv("REDIS_ADDR"),

		InventoryURL: os.Getenv("INVENTORY_URL"),
		WalletURL:    os.Getenv("WALLET_URL"),
		OfferURL:     os.Getenv("OFFER_URL"),
		DeliveryURL:  os.Getenv("DELIVERY_URL"),
		AddressURL:   os.Getenv("ADDRESS_URL"),
		CartURL:      os.Getenv("CART_URL"),
		CatalogURL:   os.Getenv("CATALOG_URL"),

		ShopName: EnvDefault("SHOP_NAME", "Storefront"),
		CODLimit: EnvFloatDefault("COD_LIMIT", 1000),
		TaxRate:  EnvFloatDefault("TAX_RATE", 0),
	}
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
