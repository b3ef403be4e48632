package report

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yz4230/deployboard/internal/client"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/utils"
)

var reportFlags struct {
	server  string
	timeout time.Duration
	payload entity.DeployPayload
}

// ReportCmd posts one deploy record. It is meant to run as the last step of
// a CI pipeline, so most fields default to the usual CI variables.
var ReportCmd = &cobra.Command{
	Use:           "report",
	Short:         "Report a finished deployment to a deployboard server",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := reportFlags.payload
		fillFromEnv(&payload, os.Getenv)
		if err := payload.Validate(); err != nil {
			log.Error().Err(err).Msg("invalid deploy record")
			return err
		}

		cli, err := client.New(reportFlags.server, reportFlags.timeout)
		if err != nil {
			return err
		}
		rec, err := cli.CreateDeploy(cmd.Context(), &payload)
		if err != nil {
			log.Error().Err(err).Str("server", reportFlags.server).Msg("failed to report deploy")
			return err
		}

		log.Info().Str("id", rec.ID.String()).Str("project", rec.ProjectName).Msg("deploy reported")
		fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
		return nil
	},
}

// fillFromEnv completes fields left empty on the command line from the CI
// environment (GitHub Actions, then GitLab CI).
func fillFromEnv(p *entity.DeployPayload, getenv func(string) string) {
	p.ProjectName = utils.FirstNonEmpty(p.ProjectName, getenv("DEPLOY_PROJECT"), getenv("CI_PROJECT_NAME"), repoName(getenv("GITHUB_REPOSITORY")))
	p.Operator = utils.FirstNonEmpty(p.Operator, getenv("DEPLOY_OPERATOR"), getenv("GITHUB_ACTOR"), getenv("GITLAB_USER_LOGIN"))
	p.Environment = utils.FirstNonEmpty(p.Environment, getenv("DEPLOY_ENVIRONMENT"), getenv("CI_ENVIRONMENT_NAME"))
	p.Branch = utils.FirstNonEmpty(p.Branch, getenv("GITHUB_REF_NAME"), getenv("CI_COMMIT_REF_NAME"))
	p.Commit = utils.FirstNonEmpty(p.Commit, getenv("GITHUB_SHA"), getenv("CI_COMMIT_SHA"))
	p.Title = utils.FirstNonEmpty(p.Title, getenv("DEPLOY_TITLE"), getenv("CI_COMMIT_TITLE"))
	if p.Title == "" && p.ProjectName != "" {
		p.Title = "deploy " + p.ProjectName
	}
	p.Status = utils.FirstNonEmpty(p.Status, getenv("DEPLOY_STATUS"), string(entity.DeployStatusSuccess))
}

func repoName(fullName string) string {
	for i := len(fullName) - 1; i >= 0; i-- {
		if fullName[i] == '/' {
			return fullName[i+1:]
		}
	}
	return fullName
}

func init() {
	f := ReportCmd.Flags()
	f.StringVarP(&reportFlags.server, "server", "s", "http://localhost:8080", "Base URL of the deployboard server")
	f.DurationVar(&reportFlags.timeout, "timeout", 15*time.Second, "Request timeout")
	f.StringVar(&reportFlags.payload.Title, "title", "", "Deploy title")
	f.StringVar(&reportFlags.payload.ProjectName, "project", "", "Project name")
	f.StringVar(&reportFlags.payload.Operator, "operator", "", "Who ran the deploy")
	f.StringVar(&reportFlags.payload.Environment, "environment", "", "Target environment")
	f.StringVar(&reportFlags.payload.Branch, "branch", "", "Deployed branch")
	f.StringVar(&reportFlags.payload.Commit, "commit", "", "Deployed commit")
	f.StringVar(&reportFlags.payload.Note, "note", "", "Optional note")
	f.StringVar(&reportFlags.payload.DeployedAt, "deployed-at", "", "Deployment time (RFC 3339); defaults to now on the server")
	f.StringVar(&reportFlags.payload.Status, "status", "", "success, failed, running or canceled (default success)")
}
