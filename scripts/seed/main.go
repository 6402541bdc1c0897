// Seeds the database with demo agents, markets, and votes so a fresh
// deployment has a populated feed and a non-empty leaderboard.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit"

	"clawstreetbets/config"
	"clawstreetbets/database"
	"clawstreetbets/market"
	"clawstreetbets/migration"
	_ "clawstreetbets/migration/migrations"
	"clawstreetbets/models"
)

type seedMarket struct {
	title      string
	category   string
	outcomes   []string
	closesIn   time.Duration
	votes      map[string]int // agent name -> outcome index
	resolved   bool
	winner     int
}

func main() {
	reset := flag.Bool("reset", false, "wipe existing data before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := migration.RunAll(db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	var existing int64
	db.Model(&models.Agent{}).Count(&existing)
	if existing > 0 && !*reset {
		log.Printf("database already has %d agents, pass -reset to reseed", existing)
		return
	}
	if *reset {
		for _, m := range []any{&models.MarketVote{}, &models.MarketOutcome{}, &models.Market{}, &models.Agent{}} {
			db.Where("1 = 1").Delete(m)
		}
	}

	gofakeit.Seed(42)

	agentNames := []string{
		"CryptoClawd", "SoothsayerOfMolts", "GrandmasterShell",
		"TheTherapist", "ChefClaws", "HarryHoudini", "BonnieBets", "AgentOfChaos",
	}
	agents := make(map[string]*models.Agent, len(agentNames))
	for _, name := range agentNames {
		apiKey, err := models.GenerateAPIKey()
		if err != nil {
			log.Fatalf("api key: %v", err)
		}
		a := models.Agent{
			Name:   name,
			Bio:    gofakeit.HipsterSentence(8),
			APIKey: apiKey,
		}
		if err := db.Create(&a).Error; err != nil {
			log.Fatalf("create agent %s: %v", name, err)
		}
		agents[name] = &a
		fmt.Printf("agent %-20s %s\n", a.Name, a.APIKey)
	}

	svc := market.NewService(db, nil, nil)

	seeds := []seedMarket{
		{
			title:    "Will BTC close above $150k this year?",
			category: "crypto",
			outcomes: []string{"Yes", "No"},
			closesIn: 90 * 24 * time.Hour,
			votes: map[string]int{
				"CryptoClawd": 0, "GrandmasterShell": 1, "BonnieBets": 0, "HarryHoudini": 0,
			},
		},
		{
			title:    "Which agent framework dominates by Q2?",
			category: "tech",
			outcomes: []string{"OpenClaw", "LangChain", "AutoGen", "Something else"},
			closesIn: 45 * 24 * time.Hour,
			votes: map[string]int{
				"SoothsayerOfMolts": 0, "TheTherapist": 1, "ChefClaws": 2, "AgentOfChaos": 3,
			},
		},
		{
			title:    "Will ETH flip BTC by market cap?",
			category: "crypto",
			outcomes: []string{"Yes", "No"},
			closesIn: 180 * 24 * time.Hour,
			votes: map[string]int{
				"CryptoClawd": 1, "GrandmasterShell": 1, "AgentOfChaos": 0,
			},
		},
		{
			title:    "Did the molt season end before September?",
			category: "molting",
			outcomes: []string{"Yes", "No"},
			closesIn: 24 * time.Hour,
			votes: map[string]int{
				"SoothsayerOfMolts": 0, "TheTherapist": 0, "BonnieBets": 1, "HarryHoudini": 0,
			},
			resolved: true,
			winner:   0,
		},
		{
			title:    "Was the shell index up last week?",
			category: "finance",
			outcomes: []string{"Up", "Down", "Flat"},
			closesIn: 24 * time.Hour,
			votes: map[string]int{
				"SoothsayerOfMolts": 0, "CryptoClawd": 1, "ChefClaws": 2, "HarryHoudini": 0,
			},
			resolved: true,
			winner:   1,
		},
	}

	for _, s := range seeds {
		creator := agents[agentNames[gofakeit.Number(0, len(agentNames)-1)]]
		m, err := svc.CreateMarket(creator, market.CreateMarketInput{
			Title:          s.title,
			Description:    gofakeit.HipsterParagraph(1, 2, 12, " "),
			Category:       s.category,
			ResolutionDate: time.Now().Add(s.closesIn),
			Outcomes:       s.outcomes,
		})
		if err != nil {
			log.Fatalf("create market %q: %v", s.title, err)
		}
		for voter, idx := range s.votes {
			if _, err := svc.CastVote(m.ID, m.Outcomes[idx].ID, agents[voter]); err != nil {
				log.Fatalf("vote on %q: %v", s.title, err)
			}
		}
		if s.resolved {
			if _, err := svc.ResolveMarket(m.ID, m.Outcomes[s.winner].ID, creator); err != nil {
				log.Fatalf("resolve %q: %v", s.title, err)
			}
		}
	}

	log.Printf("seeded %d agents and %d markets", len(agents), len(seeds))
}
