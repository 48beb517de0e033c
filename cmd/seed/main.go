package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"library-records/library"
)

var (
	dbPath string
	reset  bool
)

func main() {
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load a sample data set into the library database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "library.db", "path to the database file")
	cmd.Flags().BoolVar(&reset, "reset", false, "remove the database file before seeding")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	if reset {
		fmt.Println("Cleaning up existing database files...")
		for _, suffix := range []string{"", "-shm", "-wal"} {
			file := dbPath + suffix
			if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
				fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
			}
		}
	}

	manager, err := library.NewLibraryManager(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer manager.Close()

	rooms := []struct {
		capacity int
		roomType string
	}{
		{30, "Study Room"},
		{100, "Event Hall"},
		{20, "Computer Lab"},
		{15, "Meeting Room"},
		{50, "Reading Room"},
	}
	roomIDs := make([]int64, 0, len(rooms))
	for _, r := range rooms {
		id, err := manager.AddRoom(r.capacity, r.roomType)
		if err != nil {
			return fmt.Errorf("adding room %q: %w", r.roomType, err)
		}
		roomIDs = append(roomIDs, id)
	}
	fmt.Printf("Added %d rooms\n", len(roomIDs))

	persons := []library.NewPerson{
		{Name: "John Doe", Address: "123 Main St", Phone: "555-0101", Email: "john@email.com", Role: library.RoleMember},
		{Name: "Jane Smith", Address: "456 Oak Ave", Phone: "555-0102", Email: "jane@email.com", Role: library.RoleLibrarian, Salary: 45000},
		{Name: "Bob Wilson", Address: "789 Pine Rd", Phone: "555-0103", Email: "bob@email.com", Role: library.RoleMember},
		{Name: "Alice Brown", Address: "321 Elm St", Phone: "555-0104", Email: "alice@email.com", Role: library.RoleVolunteer},
	}
	for _, p := range persons {
		if _, err := manager.AddPerson(p); err != nil {
			return fmt.Errorf("adding %s: %w", p.Name, err)
		}
	}
	fmt.Printf("Added %d persons\n", len(persons))

	items := []struct {
		title, itemType, authorPublisher, isbn string
		year                                   int
	}{
		{"The Great Gatsby", "Book", "F. Scott Fitzgerald", "978-0-7432-7356-5", 1925},
		{"To Kill a Mockingbird", "Book", "Harper Lee", "978-0-06-112008-4", 1960},
		{"Python Programming", "Book", "Tech Press", "978-1-234-56789-0", 2020},
		{"The Matrix", "DVD", "Warner Bros", "", 1999},
	}
	for _, it := range items {
		if _, err := manager.AddItem(it.title, it.itemType, it.authorPublisher, it.isbn, it.year); err != nil {
			return fmt.Errorf("adding item %q: %w", it.title, err)
		}
	}
	fmt.Printf("Added %d items\n", len(items))

	events := []struct {
		name string
		date string
		room int
		cap  int
	}{
		{"Book Club Meeting", "2026-09-15", 0, 30},
		{"Children Story Time", "2026-09-20", 4, 25},
		{"Programming Workshop", "2026-09-25", 2, 20},
	}
	for _, e := range events {
		date, err := time.Parse("2006-01-02", e.date)
		if err != nil {
			return fmt.Errorf("parsing date for %q: %w", e.name, err)
		}
		if _, err := manager.AddEvent(e.name, date, roomIDs[e.room], e.cap); err != nil {
			return fmt.Errorf("adding event %q: %w", e.name, err)
		}
	}
	fmt.Printf("Added %d events\n", len(events))

	fmt.Println("\nSeeding complete!")

	items2, err := manager.FindItems("")
	if err != nil {
		return fmt.Errorf("listing items: %w", err)
	}
	fmt.Println("\nCatalog:")
	fmt.Printf("%-3s %-40s %-8s %-25s\n", "ID", "Title", "Type", "Author/Publisher")
	fmt.Println(strings.Repeat("-", 80))
	for _, it := range items2 {
		fmt.Printf("%-3d %-40s %-8s %-25s\n", it.ID, truncateString(it.Title, 40), it.Type, truncateString(it.AuthorPublisher, 25))
	}

	members, err := manager.ListMembers()
	if err != nil {
		return fmt.Errorf("listing members: %w", err)
	}
	fmt.Println("\nMembers:")
	fmt.Printf("%-3s %-30s %-25s %-10s\n", "ID", "Name", "Email", "Status")
	fmt.Println(strings.Repeat("-", 72))
	for _, m := range members {
		fmt.Printf("%-3d %-30s %-25s %-10s\n", m.PersonID, truncateString(m.Name, 30), truncateString(m.Email, 25), m.Status)
	}

	return nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
