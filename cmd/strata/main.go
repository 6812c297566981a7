package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/alexflint/go-arg"
	"github.com/go-errors/errors"

	"github.com/hscells/strata"
	"github.com/hscells/strata/dataset"
	"github.com/hscells/strata/output"
)

var (
	name    = "strata"
	version = "21.Aug.2026"
	author  = "Harry Scells"
)

type args struct {
	Data   string `help:"csv dataset to load" arg:"-d,required"`
	Config string `help:"experiment properties file" arg:"-c,required"`
	Output string `help:"directory to write results to" arg:"-o"`
	Quiet  bool   `help:"suppress the candidate progress bar" arg:"-q"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
@ %s
# %s`, name, author, version)
}

func main() {
	var args args
	arg.MustParse(&args)

	experiment, err := strata.LoadExperiment(args.Config)
	if err != nil {
		log.Fatalln(errors.Wrap(err, 0).ErrorStack())
	}

	source := dataset.CSVSource{
		Path:       args.Data,
		LabelField: experiment.LabelField,
		Positive:   experiment.Positive,
	}

	p, err := strata.NewPipeline(source, experiment,
		strata.LeaderboardOutput(output.JsonLeaderboardFormatter),
		strata.EvaluationOutput(output.JsonEvaluationFormatter),
		strata.ImportanceOutput(output.JsonImportanceFormatter))
	if err != nil {
		log.Fatalln(errors.Wrap(err, 0).ErrorStack())
	}
	p.Verbose = !args.Quiet

	outDir := args.Output
	if len(outDir) == 0 {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatalln(errors.Wrap(err, 0).ErrorStack())
	}

	// The pipeline executes asynchronously; consume results until completed.
	c := make(chan strata.Result)
	go p.Execute(c)

	for result := range c {
		switch result.Type {
		case strata.Leaderboard:
			write(filepath.Join(outDir, "leaderboard.json"), result.Formatted[0])
		case strata.Selection:
			log.Printf("selected candidate %d: %v", result.Selected.Index, result.Selected.Params)
		case strata.TestEvaluation:
			write(filepath.Join(outDir, "evaluation.json"), result.Formatted[0])
			for measure, score := range result.Evaluation {
				fmt.Printf("%s: %f\n", measure, score)
			}
		case strata.Importance:
			write(filepath.Join(outDir, "importance.json"), result.Formatted[0])
		case strata.Error:
			log.Fatalln(errors.Wrap(result.Error, 0).ErrorStack())
		case strata.Done:
			log.Println("completed run", result.RunID)
		}
	}
}

func write(path, data string) {
	if err := ioutil.WriteFile(path, []byte(data), 0644); err != nil {
		log.Fatalln(errors.Wrap(err, 0).ErrorStack())
	}
}
