package numerai

import (
	"encoding/json"
	"strings"
)

const uploadAuthQuery = `query($filename: String!, $modelId: String) {
  submissionUploadSignalsAuth(filename: $filename, modelId: $modelId) {
    filename
    url
  }
}`

const createSubmissionMutation = `mutation($filename: String!, $modelId: String) {
  createSignalsSubmission(filename: $filename, modelId: $modelId) {
    id
    firstEffectiveDate
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []graphQLError `json:"errors,omitempty"`
}

func (r graphQLResponse[T]) err() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

type uploadAuth struct {
	Auth *struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
	} `json:"submissionUploadSignalsAuth"`
}

type createSubmission struct {
	Submission *struct {
		ID                 string          `json:"id"`
		FirstEffectiveDate json.RawMessage `json:"firstEffectiveDate"`
	} `json:"createSignalsSubmission"`
}
