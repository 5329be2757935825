// Command seed loads demo reference data (states, cities, brands, devices
// and faults) into a migrated postgres database. Run the server once first
// so the tables and default categories exist. Re-running is safe.
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type seedCity struct {
	Name      string
	Pincodes  []string
	Latitude  float64
	Longitude float64
}

type seedState struct {
	Name   string
	Code   string
	Cities []seedCity
}

type seedFault struct {
	Name        string
	Description string
	Price       float64
}

type seedDevice struct {
	Category string
	Brand    string
	Models   []string
	Faults   []seedFault
}

var states = []seedState{
	{Name: "West Bengal", Code: "WB", Cities: []seedCity{
		{Name: "Kolkata", Pincodes: []string{"700001", "700016", "700019", "700091"}, Latitude: 22.5726, Longitude: 88.3639},
		{Name: "Howrah", Pincodes: []string{"711101", "711102"}, Latitude: 22.5958, Longitude: 88.2636},
	}},
	{Name: "Maharashtra", Code: "MH", Cities: []seedCity{
		{Name: "Mumbai", Pincodes: []string{"400001", "400050", "400076"}, Latitude: 19.0760, Longitude: 72.8777},
		{Name: "Pune", Pincodes: []string{"411001", "411038"}, Latitude: 18.5204, Longitude: 73.8567},
	}},
	{Name: "Karnataka", Code: "KA", Cities: []seedCity{
		{Name: "Bengaluru", Pincodes: []string{"560001", "560034", "560066"}, Latitude: 12.9716, Longitude: 77.5946},
	}},
}

var phoneFaults = []seedFault{
	{Name: "Screen Cracked", Description: "Display glass or panel replacement", Price: 2500},
	{Name: "Battery Drain", Description: "Battery replacement", Price: 1200},
	{Name: "Charging Port", Description: "Port cleaning or replacement", Price: 800},
	{Name: "Camera Not Working", Description: "Rear or front camera module", Price: 1800},
}

var laptopFaults = []seedFault{
	{Name: "Keyboard Not Working", Description: "Keyboard replacement", Price: 2200},
	{Name: "Screen Flicker", Description: "Display cable or panel", Price: 4500},
	{Name: "Overheating", Description: "Cleaning and thermal paste", Price: 1000},
}

var devices = []seedDevice{
	{Category: "Mobile", Brand: "Apple", Models: []string{"iPhone 13", "iPhone 14", "iPhone 15"}, Faults: phoneFaults},
	{Category: "Mobile", Brand: "Samsung", Models: []string{"Galaxy S23", "Galaxy A54"}, Faults: phoneFaults},
	{Category: "Mobile", Brand: "OnePlus", Models: []string{"OnePlus 11", "Nord CE 3"}, Faults: phoneFaults},
	{Category: "Tablet", Brand: "Apple", Models: []string{"iPad Air", "iPad 10th Gen"}, Faults: phoneFaults[:3]},
	{Category: "Laptop", Brand: "Dell", Models: []string{"Inspiron 15", "XPS 13"}, Faults: laptopFaults},
	{Category: "Laptop", Brand: "HP", Models: []string{"Pavilion 14", "Victus 15"}, Faults: laptopFaults},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL is required")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}
	log.Println("✅ Successfully connected to database")

	if err := seedLocalities(db); err != nil {
		log.Fatal("Failed to seed localities:", err)
	}
	if err := seedCatalog(db); err != nil {
		log.Fatal("Failed to seed catalog:", err)
	}
	log.Println("🎉 Seed completed")
}

func seedLocalities(db *sql.DB) error {
	for _, s := range states {
		var stateID int64
		err := db.QueryRow(`INSERT INTO states (name, code) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET code = EXCLUDED.code RETURNING id`, s.Name, s.Code).Scan(&stateID)
		if err != nil {
			return fmt.Errorf("state %s: %w", s.Name, err)
		}

		for _, c := range s.Cities {
			var exists bool
			if err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM cities WHERE name = $1 AND state_id = $2)`,
				c.Name, stateID).Scan(&exists); err != nil {
				return err
			}
			if exists {
				log.Printf("⚠️  City %s already exists, skipping", c.Name)
				continue
			}
			pincodes, err := json.Marshal(c.Pincodes)
			if err != nil {
				return err
			}
			if _, err := db.Exec(`INSERT INTO cities (name, state_id, pincodes, latitude, longitude, is_active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())`,
				c.Name, stateID, string(pincodes), c.Latitude, c.Longitude); err != nil {
				return fmt.Errorf("city %s: %w", c.Name, err)
			}
			log.Printf("✅ City %s, %s", c.Name, s.Name)
		}
	}
	return nil
}

func seedCatalog(db *sql.DB) error {
	for _, d := range devices {
		var categoryID int64
		if err := db.QueryRow(`SELECT id FROM categories WHERE name = $1`, d.Category).Scan(&categoryID); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("category %s is missing; start the server once to create it", d.Category)
			}
			return err
		}

		var brandID int64
		if err := db.QueryRow(`INSERT INTO brands (category_id, name, created_at) VALUES ($1, $2, NOW())
			ON CONFLICT (category_id, name) DO UPDATE SET name = EXCLUDED.name RETURNING id`,
			categoryID, d.Brand).Scan(&brandID); err != nil {
			return fmt.Errorf("brand %s: %w", d.Brand, err)
		}

		for _, model := range d.Models {
			var deviceID int64
			if err := db.QueryRow(`INSERT INTO devices (category_id, brand_id, model, created_at, updated_at)
				VALUES ($1, $2, $3, NOW(), NOW())
				ON CONFLICT (category_id, brand_id, model) DO UPDATE SET updated_at = NOW() RETURNING id`,
				categoryID, brandID, model).Scan(&deviceID); err != nil {
				return fmt.Errorf("device %s %s: %w", d.Brand, model, err)
			}

			added := 0
			for _, f := range d.Faults {
				res, err := db.Exec(`INSERT INTO faults (device_id, name, description, price, is_active, created_at, updated_at)
					SELECT $1, $2, $3, $4, TRUE, NOW(), NOW()
					WHERE NOT EXISTS (SELECT 1 FROM faults WHERE device_id = $1 AND name = $2)`,
					deviceID, f.Name, f.Description, f.Price)
				if err != nil {
					return fmt.Errorf("fault %s on %s: %w", f.Name, model, err)
				}
				if n, _ := res.RowsAffected(); n > 0 {
					added++
				}
			}
			log.Printf("✅ %s %s (%d new faults)", d.Brand, model, added)
		}
	}
	return nil
}
