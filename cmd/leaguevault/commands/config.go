package commands

import (
	"errors"
	"os"
	"time"

	"leaguevault/lib/configutil"
	"leaguevault/lib/osutil"
	"leaguevault/lib/scrapers/espn"
)

type ESPNConfig struct {
	LeagueID    string `json:"league_id"`
	Season      int    `json:"season"`
	StartSeason int    `json:"start_season"`
	EndSeason   int    `json:"end_season"`
}

type SleeperConfig struct {
	LeagueID string `json:"league_id"`
	MaxRound int    `json:"max_round"`
}

type Config struct {
	DataDir string        `json:"data_dir"`
	ESPN    ESPNConfig    `json:"espn"`
	Sleeper SleeperConfig `json:"sleeper"`
}

// loadConfig reads leaguevault.json5 (with the usual .local. override),
// then lets run parameters from the environment win over file values.
// The file is optional; the environment alone is enough for every
// command.
func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("leaguevault.json5")
	if err != nil && !os.IsNotExist(err) {
		osutil.Fatal("failed to read config", err)
	}

	cfg.ESPN.LeagueID = configutil.EnvString("ESPN_LEAGUE_ID", cfg.ESPN.LeagueID)
	if cfg.ESPN.Season == 0 {
		cfg.ESPN.Season = time.Now().Year()
	}
	cfg.ESPN.Season = configutil.EnvInt("SEASON", cfg.ESPN.Season)
	if cfg.ESPN.StartSeason == 0 {
		cfg.ESPN.StartSeason = cfg.ESPN.Season
	}
	if cfg.ESPN.EndSeason == 0 {
		cfg.ESPN.EndSeason = cfg.ESPN.Season
	}
	cfg.ESPN.StartSeason = configutil.EnvInt("START_SEASON", cfg.ESPN.StartSeason)
	cfg.ESPN.EndSeason = configutil.EnvInt("END_SEASON", cfg.ESPN.EndSeason)

	cfg.Sleeper.LeagueID = configutil.EnvString("SLEEPER_LEAGUE_ID", cfg.Sleeper.LeagueID)
	if cfg.Sleeper.MaxRound == 0 {
		cfg.Sleeper.MaxRound = 18
	}
	cfg.Sleeper.MaxRound = configutil.EnvInt("MAX_ROUND", cfg.Sleeper.MaxRound)

	if cfg.DataDir == "" {
		cfg.DataDir = "data_raw"
	}
	return cfg
}

func requireESPNLeague(cfg Config) {
	if cfg.ESPN.LeagueID == "" {
		osutil.Fatal("missing ESPN league id", errors.New("set ESPN_LEAGUE_ID or espn.league_id in leaguevault.json5"))
	}
}

// loadCookie resolves the ESPN credential from ESPN_COOKIE or
// ESPN_COOKIE_FILE and normalizes it. No credential is fatal: the
// private API serves redirects to anonymous requests.
func loadCookie() string {
	raw := os.Getenv("ESPN_COOKIE")
	if raw == "" {
		if path := os.Getenv("ESPN_COOKIE_FILE"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				osutil.Fatal("failed to read cookie file", err)
			}
			raw = string(data)
		}
	}

	cookie, err := espn.NormalizeCookie(raw)
	if err != nil {
		osutil.Fatal("missing ESPN cookie values, provide ESPN_COOKIE or ESPN_COOKIE_FILE", err)
	}
	return cookie
}
