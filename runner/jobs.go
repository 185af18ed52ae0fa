package runner

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/gosom/scrapemate"

	"github.com/sadewadee/google-place-resolver/place"
)

// CreateSeedJobs turns a URL list (one Maps URL per line, optionally suffixed
// with `#!# <id>` to pin the job id) into resolve jobs. Shortened URLs are
// expanded here so the jobs carry pattern-matchable URLs; expansion failures
// keep the original line, matching the resolver's behavior.
func CreateSeedJobs(
	ctx context.Context,
	langCode string,
	r io.Reader,
	lookup *place.LookupClient,
	verifyEmails bool,
) (jobs []scrapemate.IJob, err error) {
	normalizer := place.NewNormalizer()

	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		rawURL := strings.TrimSpace(scanner.Text())
		if rawURL == "" || strings.HasPrefix(rawURL, "#") {
			continue
		}

		var id string

		if before, after, ok := strings.Cut(rawURL, "#!#"); ok {
			rawURL = strings.TrimSpace(before)
			id = strings.TrimSpace(after)
		}

		finalURL, lang := normalizer.Normalize(ctx, place.Query{RawURL: rawURL, Language: langCode})

		opts := []place.ResolveJobOptions{}

		if lookup.Enabled() {
			opts = append(opts, place.WithJobLookup(lookup))
		}

		if verifyEmails {
			opts = append(opts, place.WithJobEmailVerification(true))
		}

		jobs = append(jobs, place.NewResolveJob(id, finalURL, lang, opts...))
	}

	return jobs, scanner.Err()
}
