// Command demoview inspects a recorded demo database.
//
// With only -db it lists the stored episodes; with
// -episode it dumps that episode's steps as JSON lines.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

func main() {
	dbPath := flag.String("db", "demos/demos.db", "path to demo database")
	episode := flag.String("episode", "", "episode ID to dump")
	flag.Parse()

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "demoview:", err)
		os.Exit(1)
	}
	defer db.Close()

	var exitCode int
	if *episode != "" {
		exitCode = dumpEpisode(db, *episode)
	} else {
		exitCode = listEpisodes(db)
	}
	os.Exit(exitCode)
}

func listEpisodes(db *sql.DB) int {
	rows, err := db.Query(
		`SELECT episode_id, name, created_at, num_steps, total_reward
		 FROM episodes ORDER BY created_at`)
	if err != nil {
		fmt.Fprintln(os.Stderr, "demoview:", err)
		return 1
	}
	defer rows.Close()

	for rows.Next() {
		var id, name, createdAt string
		var numSteps int
		var totalReward float64
		if err := rows.Scan(&id, &name, &createdAt, &numSteps,
			&totalReward); err != nil {
			fmt.Fprintln(os.Stderr, "demoview:", err)
			return 1
		}
		fmt.Printf("%s  %-10s  %s  steps=%d  reward=%f\n",
			id, name, createdAt, numSteps, totalReward)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "demoview:", err)
		return 1
	}
	return 0
}

func dumpEpisode(db *sql.DB, id string) int {
	rows, err := db.Query(
		`SELECT step_idx, ob_json, action_json, reward
		 FROM steps WHERE episode_id = ? ORDER BY step_idx`, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "demoview:", err)
		return 1
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var idx int
		var obJSON string
		var actJSON sql.NullString
		var reward float64
		if err := rows.Scan(&idx, &obJSON, &actJSON, &reward); err != nil {
			fmt.Fprintln(os.Stderr, "demoview:", err)
			return 1
		}
		found = true
		if actJSON.Valid {
			fmt.Printf(`{"step":%d,"ob":%s,"action":%s,"reward":%f}`+"\n",
				idx, obJSON, actJSON.String, reward)
		} else {
			fmt.Printf(`{"step":%d,"ob":%s,"reward":%f}`+"\n",
				idx, obJSON, reward)
		}
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "demoview:", err)
		return 1
	}
	if !found {
		fmt.Fprintln(os.Stderr, "demoview: no such episode:", id)
		return 1
	}
	return 0
}
