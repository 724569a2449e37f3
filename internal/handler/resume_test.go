package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dukerupert/fitletter/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumeBody = `{
	"title": "Backend",
	"name": "Alice Doe",
	"email": "alice@example.com",
	"linkedin_url": "https://linkedin.com/in/alice",
	"skills": {"programming": ["Go", "SQL"]},
	"experiences": [{"company": "Acme", "role": "Engineer"}]
}`

func createResume(t *testing.T, app *testApp, u *model.User) model.Resume {
	t.Helper()
	rec := do(app.resumeH.Create, "POST", resumeBody, asUser(u))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var r model.Resume
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

func TestResumeCreateAndGet(t *testing.T) {
	app := newTestApp(t)
	u := app.user(t, "alice@example.com")

	created := createResume(t, app, u)
	assert.Equal(t, u.ID, created.UserID)
	assert.JSONEq(t, `{"programming": ["Go", "SQL"]}`, string(created.Skills))
	assert.JSONEq(t, `[]`, string(created.Education))

	rec := do(app.resumeH.Get, "GET", "", asUser(u), withID(created.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Resume
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Backend", got.Title)
}

func TestResumeValidation(t *testing.T) {
	app := newTestApp(t)
	u := app.user(t, "alice@example.com")

	rec := do(app.resumeH.Create, "POST", `{"name":"No Title"}`, asUser(u))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"title is required"}`, rec.Body.String())

	rec = do(app.resumeH.Create, "POST", `{"title":"x","linkedin_url":"not a url"}`, asUser(u))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"linkedin_url must be a URL"}`, rec.Body.String())
}

func TestResumeOwnerScoped(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice@example.com")
	bob := app.user(t, "bob@example.com")
	r := createResume(t, app, alice)

	assert.Equal(t, http.StatusNotFound, do(app.resumeH.Get, "GET", "", asUser(bob), withID(r.ID)).Code)
	assert.Equal(t, http.StatusNotFound, do(app.resumeH.Update, "PUT", `{"title":"mine now"}`, asUser(bob), withID(r.ID)).Code)
	assert.Equal(t, http.StatusNotFound, do(app.resumeH.Delete, "DELETE", "", asUser(bob), withID(r.ID)).Code)

	rec := do(app.resumeH.List, "GET", "", asUser(bob))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestResumeUpdateAndDelete(t *testing.T) {
	app := newTestApp(t)
	u := app.user(t, "alice@example.com")
	r := createResume(t, app, u)

	rec := do(app.resumeH.Update, "PUT", `{"title":"Platform","summary":"SRE"}`, asUser(u), withID(r.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.Resume
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Platform", updated.Title)
	assert.NotNil(t, updated.UpdatedAt)

	assert.Equal(t, http.StatusNoContent, do(app.resumeH.Delete, "DELETE", "", asUser(u), withID(r.ID)).Code)
	assert.Equal(t, http.StatusNotFound, do(app.resumeH.Get, "GET", "", asUser(u), withID(r.ID)).Code)
}

func TestResumeInvalidID(t *testing.T) {
	app := newTestApp(t)
	u := app.user(t, "alice@example.com")

	rec := do(app.resumeH.Get, "GET", "", asUser(u), func(r *http.Request) { r.SetPathValue("id", "abc") })
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
