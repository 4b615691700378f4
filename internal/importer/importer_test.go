package importer

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"yamdb/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validFiles = map[string]string{
	UsersFile: "id,username,email,role,bio,first_name,last_name\n" +
		"100,bingobongo,bingobongo@yamdb.fake,user,,,\n" +
		"101,capt_obvious,capt_obvious@yamdb.fake,admin,,Capt,Obvious\n",
	CategoriesFile: "id,name,slug\n1,Фильм,movie\n2,Книга,book\n",
	GenresFile:     "id,name,slug\n1,Драма,drama\n2,Комедия,comedy\n",
	TitlesFile:     "id,name,year,category\n1,Побег из Шоушенка,1994,1\n2,Без категории,2001,\n",
	GenreTitleFile: "id,title_id,genre_id\n1,1,1\n2,1,2\n",
	ReviewsFile: "id,title_id,text,author,score,pub_date\n" +
		"1,1,\"Ставлю десять, нет, одиннадцать\",100,10,2019-09-24T21:08:21.567Z\n",
	CommentsFile: "id,review_id,text,author,pub_date\n1,1,Согласен,101,2019-09-24T21:08:21.567Z\n",
}

func writeDir(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range validFiles {
		if o, ok := overrides[name]; ok {
			body = o
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestParse(t *testing.T) {
	d, err := Parse(writeDir(t, nil))
	require.NoError(t, err)

	require.Len(t, d.Users, 2)
	assert.Equal(t, uint(101), d.Users[1].ID)
	assert.Equal(t, models.RoleAdmin, d.Users[1].Role)
	assert.Equal(t, "Capt", d.Users[1].FirstName)

	require.Len(t, d.Titles, 2)
	require.NotNil(t, d.Titles[0].CategoryID)
	assert.Equal(t, uint(1), *d.Titles[0].CategoryID)
	assert.Nil(t, d.Titles[1].CategoryID)

	require.Len(t, d.Reviews, 1)
	assert.Equal(t, "Ставлю десять, нет, одиннадцать", d.Reviews[0].Text)
	assert.Equal(t, uint(100), d.Reviews[0].AuthorID)
	assert.Equal(t, time.Date(2019, 9, 24, 21, 8, 21, 567000000, time.UTC), d.Reviews[0].PubDate.UTC())

	assert.Equal(t, map[string]int{
		UsersFile: 2, CategoriesFile: 2, GenresFile: 2, TitlesFile: 2,
		GenreTitleFile: 2, ReviewsFile: 1, CommentsFile: 1,
	}, d.Counts())
}

func TestParseDefaultsRole(t *testing.T) {
	d, err := Parse(writeDir(t, map[string]string{
		UsersFile: "id,username,email,role\n1,anon,anon@yamdb.fake,\n",
	}))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, d.Users[0].Role)
}

func TestParseStripsByteOrderMark(t *testing.T) {
	d, err := Parse(writeDir(t, map[string]string{
		CategoriesFile: "\ufeffid,name,slug\n1,Фильм,movie\n",
	}))
	require.NoError(t, err)
	assert.Equal(t, "movie", d.Categories[0].Slug)
}

func TestParseRejectsBadRows(t *testing.T) {
	nextYear := time.Now().Year() + 1
	cases := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"unknown role", UsersFile, "id,username,email,role\n1,a,a@x.io,owner\n", "users.csv:2: unknown role \"owner\""},
		{"score too high", ReviewsFile, "id,title_id,text,author,score,pub_date\n1,1,t,100,11,2019-09-24\n", "review.csv:2: score 11 is outside 0..10"},
		{"future year", TitlesFile, "id,name,year,category\n1,Soon," + strconv.Itoa(nextYear) + ",1\n", "titles.csv:2: year"},
		{"bad id", GenresFile, "id,name,slug\nx,Drama,drama\n", "genre.csv:2: column \"id\""},
		{"empty slug", CategoriesFile, "id,name,slug\n1,Film,movie\n2,Book,\n", "category.csv:3: column \"slug\" is empty"},
		{"bad date", CommentsFile, "id,review_id,text,author,pub_date\n1,1,t,100,yesterday-ish\n", "comments.csv:2: column \"pub_date\""},
		{"missing column", GenreTitleFile, "id,title_id\n1,1\n", "genre_title.csv: missing column \"genre_id\""},
		{"empty file", UsersFile, "", "users.csv: file is empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(writeDir(t, map[string]string{tc.file: tc.body}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseMissingFile(t *testing.T) {
	dir := writeDir(t, nil)
	require.NoError(t, os.Remove(filepath.Join(dir, ReviewsFile)))

	_, err := Parse(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
