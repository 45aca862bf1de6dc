// Command manual steps a peg insertion environment in a
// loop for visual inspection.
//
// Defaults for the model and demo paths may come from a
// .env file (PEG_MODEL_PATH, PEG_DEMO_DIR).
package main

import (
	"flag"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/joho/godotenv"
	"github.com/unixpickle/peginsertion"
	"github.com/unixpickle/peginsertion/mujoco"
)

var logger = golog.NewDevelopmentLogger("peginsertion")

func main() {
	_ = godotenv.Load()

	task := peginsertion.TaskFlag{Task: peginsertion.TaskRemove}
	task.AddFlag()
	sparse := flag.Bool("sparse", false, "use sparse rewards")
	steps := flag.Int("steps", 200, "max episode steps")
	noise := flag.Float64("noise", 0, "uniform action noise magnitude")
	threshold := flag.Float64("threshold", 0.05, "success distance threshold")
	robotOb := flag.Bool("robotob", false, "include robot state in observations")
	record := flag.Bool("record", false, "record the run as a demo")
	model := flag.String("model", envDefault("PEG_MODEL_PATH",
		"models/assets/peg_insertion.xml"), "scene description path")
	demoDir := flag.String("demos", envDefault("PEG_DEMO_DIR", "demos"),
		"demo storage directory")
	delay := flag.Duration("delay", 10*time.Millisecond, "pause between steps")
	flag.Parse()

	sim, err := mujoco.New(*model)
	if err != nil {
		logger.Fatalw("could not load simulator", "error", err)
	}
	defer sim.Close()

	cfg := peginsertion.DefaultConfig()
	cfg.Task = task.Task
	cfg.SparseReward = *sparse
	cfg.MaxEpisodeSteps = *steps
	cfg.ActionNoise = *noise
	cfg.GoalPosThreshold = *threshold
	cfg.RobotOb = *robotOb
	cfg.RecordDemo = *record
	cfg.DemoDir = *demoDir
	cfg.ModelPath = *model

	env, err := peginsertion.New(cfg, sim)
	if err != nil {
		logger.Fatalw("could not create environment", "error", err)
	}

	if _, err := env.Reset(); err != nil {
		logger.Fatalw("could not reset environment", "error", err)
	}
	render := true
	if _, err := env.Render(peginsertion.RenderHuman, 0); err != nil {
		logger.Infow("rendering unavailable", "error", err)
		render = false
	}

	action := env.ActionSpec().Zeros()
	for {
		_, reward, done, info, err := env.Step(action)
		if err != nil {
			logger.Fatalw("step failed", "error", err)
		}
		logger.Infow("step", "reward", reward, "info", info)
		if render {
			if _, err := env.Render(peginsertion.RenderHuman, 0); err != nil {
				logger.Infow("rendering unavailable", "error", err)
				render = false
			}
		}
		if done {
			logger.Infow("episode over",
				"episode_reward", info["episode_reward"],
				"episode_success", info["episode_success"])
			break
		}
		time.Sleep(*delay)
	}

	if *record {
		if err := env.SaveDemo(); err != nil {
			logger.Fatalw("could not save demo", "error", err)
		}
		logger.Infow("demo saved", "dir", *demoDir)
	}
}

// envDefault reads an environment variable with a
// fallback.
func envDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
