// Command matchcache starts the order-matching cache behind the HTTP
// facade in pkg/server: a cobra root command, a viper-backed --config
// flag, and a short banner before the server blocks.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orderlots/matchcache/pkg/config"
	"github.com/orderlots/matchcache/pkg/directory"
	"github.com/orderlots/matchcache/pkg/matchcache"
	"github.com/orderlots/matchcache/pkg/server"
)

// seedRecord is one line of a seed file: an order to add, optionally
// registering its user/company pair in the directory first.
type seedRecord struct {
	ID         string `json:"id"`
	SecurityID string `json:"security_id"`
	Side       string `json:"side"`
	Qty        uint64 `json:"qty"`
	UserID     string `json:"user_id"`
	CompanyID  string `json:"company_id"`
}

func main() {
	var configPath string
	var seedPath string

	rootCmd := &cobra.Command{
		Use:   "matchcache",
		Short: "an in-memory order-matching cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			motd()

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			dir := directory.NewInMemoryDirectory()
			cache := matchcache.New(cfg.CacheConfig(), dir)

			if seedPath != "" {
				if err := seed(cache, dir, seedPath); err != nil {
					return fmt.Errorf("failed to seed cache: %w", err)
				}
			}

			eng := server.New(cache, dir, cfg)
			log.Printf("[matchcache] listening on %s", cfg.ListenAddr)
			return eng.Run(cfg.ListenAddr)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (optional; when unset, only env vars and defaults are used)")
	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", "", "path to a newline-delimited JSON file of orders to preload")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.SetDefault("config", "$HOME/.matchcache.yaml")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// seed reads newline-delimited JSON seedRecords from path, registering
// each user/company pair in dir before adding the order to cache.
func seed(cache *matchcache.Cache, dir *directory.InMemoryDirectory, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var n int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec seedRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("seed line %d: %w", n+1, err)
		}
		if rec.Qty == 0 {
			log.Printf("[matchcache] seed: rejected order %s: qty must be non-zero", rec.ID)
			n++
			continue
		}
		_ = dir.Register(rec.UserID, rec.CompanyID)
		o := matchcache.NewOrder(rec.ID, rec.SecurityID, matchcache.ParseSide(rec.Side), rec.Qty, rec.UserID, rec.CompanyID)
		if err := cache.AddOrder(o); err != nil {
			log.Printf("[matchcache] seed: rejected order %s: %v", rec.ID, err)
		}
		n++
	}
	log.Printf("[matchcache] seeded %d orders from %s", n, path)
	return scanner.Err()
}

func motd() {
	fmt.Print(`
  __  __       _       _    ____           _
 |  \/  | __ _| |_ ___| |__/ ___|__ _  ___| |__   ___
 | |\/| |/ _' | __/ __| '_ \___ \ / _' |/ __| '_ \ / _ \
 | |  | | (_| | || (__| | | |__) | (_| | (__| | | |  __/
 |_|  |_|\__,_|\__\___|_| |_|____/ \__,_|\___|_| |_|\___|

`)
}
