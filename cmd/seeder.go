package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{"request_comments", "requests", "notifications", "audit_logs", "software_users", "software_equipment", "software", "equipment", "news", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		users := []struct {
			PersonalID string
			FirstName  string
			LastName   string
			Role       string
			Department string
			Position   string
		}{
			{"1000000001", "Sarah", "Chen", "superuser", "IT", "Head of IT"},
			{"1000000002", "Marcus", "Webb", "admin", "IT", "Support Engineer"},
			{"1000000003", "Elena", "Petrova", "admin", "IT", "Support Engineer"},
			{"1000000004", "David", "Okafor", "user", "ACCOUNTING", "Accountant"},
		}

		for _, u := range users {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE personal_id = ?", u.PersonalID).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists; skipping\n", u.PersonalID)
				continue
			}

			if err := db.Exec(
				"INSERT INTO users (personal_id, first_name, last_name, role, department, position, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, now(), now())",
				u.PersonalID, u.FirstName, u.LastName, u.Role, u.Department, u.Position, string(hash),
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.PersonalID, err)
			}
			fmt.Printf("Seeded %s user: %s %s (%s)\n", u.Role, u.FirstName, u.LastName, u.PersonalID)
		}

		equipment := []struct {
			InventoryNumber string
			Name            string
			Type            string
			Location        string
		}{
			{"INV-0001", "Dell Latitude 5540", "laptop", "Floor 2, Room 201"},
			{"INV-0002", "HP LaserJet Pro M404", "printer", "Floor 2, Hallway"},
			{"INV-0003", "Cisco Catalyst 2960", "network", "Server room"},
		}

		for _, e := range equipment {
			var exists int
			row := db.Raw("SELECT 1 FROM equipment WHERE inventory_number = ?", e.InventoryNumber).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec(
				"INSERT INTO equipment (inventory_number, name, type, location, created_at, updated_at) VALUES (?, ?, ?, ?, now(), now())",
				e.InventoryNumber, e.Name, e.Type, e.Location,
			).Error; err != nil {
				log.Fatalf("failed to insert equipment %s: %v", e.InventoryNumber, err)
			}
			fmt.Printf("Seeded equipment: %s (%s)\n", e.Name, e.InventoryNumber)
		}

		newsTitle := "Welcome to the helpdesk portal"
		var exists int
		row := db.Raw("SELECT 1 FROM news WHERE title = ?", newsTitle).Row()
		if err := row.Scan(&exists); err != nil {
			if err := db.Exec(
				"INSERT INTO news (title, content, created_at, updated_at) VALUES (?, ?, now(), now())",
				newsTitle, "Submit support requests here and track their progress. Link your telegram account with the bot to get updates on the go.",
			).Error; err != nil {
				log.Fatalf("failed to insert news item: %v", err)
			}
			fmt.Println("Seeded welcome news item")
		}

		fmt.Println("Database seeded successfully")
	},
}
