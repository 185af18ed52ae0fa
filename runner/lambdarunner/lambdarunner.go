package lambdarunner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/sadewadee/google-place-resolver/place"
	"github.com/sadewadee/google-place-resolver/runner"
)

// lambdarunner serves the resolve endpoint behind API Gateway. The journal,
// browser mode and exports stay on the web runner; lambda is resolve-only.
type lambdarunner struct {
	resolver *place.Resolver
}

func New(cfg *runner.Config) (runner.Runner, error) {
	resolver := place.NewResolver(
		place.WithLookupClient(place.NewLookupClient(cfg.APIKey)),
		place.WithEmailVerification(cfg.VerifyEmails),
	)

	return &lambdarunner{resolver: resolver}, nil
}

func (l *lambdarunner) Run(ctx context.Context) error {
	lambda.StartWithOptions(l.handle, lambda.WithContext(ctx))

	return nil
}

func (l *lambdarunner) Close(context.Context) error {
	return nil
}

type resolveRequest struct {
	URL      string `json:"url"`
	Language string `json:"language"`
}

func (l *lambdarunner) handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var body resolveRequest

	if err := json.Unmarshal([]byte(req.Body), &body); err != nil || body.URL == "" {
		return respond(http.StatusBadRequest, map[string]any{"error": "url is required"})
	}

	p, err := l.resolver.Resolve(ctx, place.Query{RawURL: body.URL, Language: body.Language})

	switch {
	case errors.Is(err, place.ErrInvalidURL):
		return respond(http.StatusBadRequest, map[string]any{"error": "invalid google maps url"})
	case errors.Is(err, place.ErrNotFound):
		return respond(http.StatusNotFound, map[string]any{
			"error": "no place found for this url",
			"debug": map[string]any{"url": body.URL},
		})
	case err != nil:
		return respond(http.StatusInternalServerError, map[string]any{
			"error":   "failed to resolve place",
			"details": err.Error(),
		})
	}

	return respond(http.StatusOK, map[string]any{
		"success": true,
		"place":   place.BuildResponse(p),
	})
}

func respond(status int, payload map[string]any) (events.APIGatewayProxyResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}, nil
}
