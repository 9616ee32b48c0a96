package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	appdb "github.com/yourorg/runcutweb/internal/db"
	"github.com/yourorg/runcutweb/internal/importer"
	"github.com/yourorg/runcutweb/internal/models"
	"github.com/yourorg/runcutweb/internal/runcut"
	"github.com/yourorg/runcutweb/internal/store"
)

func main() {
	_ = godotenv.Load()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("==== RunCutWeb CLI ====")
		fmt.Println("1) Health check API")
		fmt.Println("2) Import GTFS CSV directory as a dataset")
		fmt.Println("3) Print run-cut report")
		fmt.Println("4) Exit")
		fmt.Print("Select option: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)
		switch choice {
		case "1":
			doHealthCheck()
		case "2":
			doImport(reader)
		case "3":
			doRunCut(reader)
		case "4":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Invalid option")
		}
		fmt.Println()
	}
}

func doHealthCheck() {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:8080"
	}
	url := strings.TrimRight(base, "/") + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		fmt.Println("Health: ERROR:", err)
		return
	}
	defer resp.Body.Close()
	fmt.Println("Health status:", resp.Status)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// doImport reads the five GTFS files from a directory and runs the import
// pipeline. Missing files contribute nothing, same as an upload without
// that file.
func doImport(reader *bufio.Reader) {
	dir := prompt(reader, "Directory with GTFS CSV files: ")
	name := prompt(reader, "Dataset name: ")

	db, err := appdb.Connect()
	if err != nil {
		log.Println("DB connect error:", err)
		return
	}
	defer db.Close()
	if err := appdb.EnsureSchema(db); err != nil {
		log.Println("Ensure schema error:", err)
		return
	}

	req := models.ImportRequest{DataSetName: name}
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	open := func(file string) io.Reader {
		f, err := os.Open(filepath.Join(dir, file))
		if err != nil {
			fmt.Printf("  %s not found, skipping\n", file)
			return nil
		}
		closers = append(closers, f)
		return f
	}
	req.Routes = open("routes.txt")
	req.Stops = open("stops.txt")
	req.Trips = open("trips.txt")
	req.StopTimings = open("stop_times.txt")
	req.CalendarDates = open("calendar_dates.txt")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result := importer.New(store.New(db)).Import(ctx, req)
	fmt.Println(result.Message)
	if result.Success {
		fmt.Printf("Dataset %d: %d routes, %d stops, %d trips, %d stop timings, %d calendar dates\n",
			result.DataSetID,
			result.Statistics.RoutesImported,
			result.Statistics.StopsImported,
			result.Statistics.TripsImported,
			result.Statistics.StopTimingsImported,
			result.Statistics.CalendarDatesImported)
	}
	for _, e := range result.Errors {
		fmt.Println("  error:", e)
	}
}

func doRunCut(reader *bufio.Reader) {
	dataSetID, err := strconv.ParseInt(prompt(reader, "Dataset id: "), 10, 64)
	if err != nil {
		fmt.Println("Invalid dataset id")
		return
	}
	routeID := prompt(reader, "Route id: ")
	if routeID == "" {
		fmt.Println("Route id is required")
		return
	}

	db, err := appdb.Connect()
	if err != nil {
		log.Println("DB connect error:", err)
		return
	}
	defer db.Close()

	opts := models.DefaultRunCutOptions(routeID)
	opts.ServiceID = prompt(reader, "Service id (blank for all): ")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := runcut.NewGenerator(store.New(db)).Generate(ctx, dataSetID, opts)
	if err != nil {
		log.Println("Run-cut error:", err)
		return
	}
	if len(result.Rows) == 0 {
		fmt.Println("No trips matched the filters")
		return
	}

	fmt.Println(strings.Join(result.StopNames, "\t"))
	for _, row := range result.Rows {
		fmt.Println(strings.Join(row, "\t"))
	}
	fmt.Printf("%d trips, %d main stops\n", len(result.Rows), len(result.StopNames))
}
