package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/nomina/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN, empty for the in-memory store
//	-s string   anti-forgery HMAC secret key
//	-i int      session idle timeout, minutes
//	-m int      session absolute lifetime, minutes
//	-k int      bcrypt cost for new hashes
//
// Duration flags are accepted as integers in minutes and converted to
// time.Duration values.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-i", "-m", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to serve HTTP")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "address and port to serve gRPC health")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	idle := fs.Int("i", int(config.SessionIdleTimeout.Minutes()), "session idle timeout (in minutes)")
	maxLifetime := fs.Int("m", int(config.SessionMaxLifetime.Minutes()), "session max lifetime (in minutes)")

	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionIdleTimeout = time.Duration(*idle) * time.Minute
	config.SessionMaxLifetime = time.Duration(*maxLifetime) * time.Minute
}
