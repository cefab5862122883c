package recommendation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ariel-frischer/recipedeploy/internal/resource"
)

// now is replaced in tests.
var now = time.Now

// ApplyDeploymentTokens fills the tokens that depend on the cloud application
// name and the deployment account. The account id is only looked up when
// querier is non-nil.
func ApplyDeploymentTokens(ctx context.Context, rec *Recommendation, applicationName string, querier resource.Querier) error {
	var accountID string
	if querier != nil {
		id, err := querier.GetCallerAccountID(ctx)
		if err != nil {
			return fmt.Errorf("resolving account id token: %w", err)
		}
		accountID = id
	}

	rec.Lock()
	defer rec.Unlock()

	rec.AddReplacementToken(TokenStackName, applicationName)
	rec.AddReplacementToken(TokenECRRepositoryName, strings.ToLower(applicationName))
	rec.AddReplacementToken(TokenECRImageTag, strconv.FormatInt(now().UTC().Unix(), 10))
	if accountID != "" {
		rec.AddReplacementToken(TokenAccountID, accountID)
	}
	if dockerfile, ok := defaultDockerfile(rec.projectDir); ok {
		rec.AddReplacementToken(TokenDockerfilePath, dockerfile)
	}
	return nil
}

// defaultDockerfile returns "Dockerfile" when the project directory has one.
func defaultDockerfile(projectDir string) (string, bool) {
	if projectDir == "" {
		return "", false
	}
	info, err := os.Stat(filepath.Join(projectDir, "Dockerfile"))
	if err != nil || info.IsDir() {
		return "", false
	}
	return "Dockerfile", true
}
