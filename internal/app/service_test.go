package app_test

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"restaurant_lives/internal/app"
	"restaurant_lives/internal/domain"
	"restaurant_lives/internal/feed"
)

type fileSource struct{}

func (fileSource) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	return os.Open(url)
}

type stringSource string

func (s stringSource) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

var fixedNow = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }

func austin(src string) domain.Municipality {
	return domain.Municipality{
		Key:          "austin",
		Name:         "City of Austin",
		URL:          "https://data.austintexas.gov",
		ContactEmail: "open.data@austintexas.gov",
		SourceURL:    src,
		ArchiveName:  "austin_lives.zip",
	}
}

func readArchive(t *testing.T, path string) map[string][][]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()

	out := map[string][][]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		if strings.HasSuffix(f.Name, ".csv") {
			recs, err := csv.NewReader(rc).ReadAll()
			if err != nil {
				t.Fatalf("parse %s: %v", f.Name, err)
			}
			out[f.Name] = recs
		} else {
			b, _ := io.ReadAll(rc)
			out[f.Name] = [][]string{{string(b)}}
		}
		rc.Close()
	}
	return out
}

func TestFeedService_Run_WritesArchive(t *testing.T) {
	dest := t.TempDir()
	repo := &fakeRepo{}
	cache := &fakeCache{}
	svc := app.NewFeedService(fileSource{}, repo, cache, app.Options{
		Strategy:  domain.IDFacility,
		DestDir:   dest,
		PublishDB: true,
		Now:       fixedNow,
	})

	res, err := svc.Run(context.Background(), austin("testdata/rows.json"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Rows != 4 || res.Businesses != 2 || res.Inspections != 4 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Archive != filepath.Join(dest, "austin_lives.zip") {
		t.Fatalf("unexpected archive path %s", res.Archive)
	}

	tables := readArchive(t, res.Archive)
	for _, name := range []string{feed.BusinessesFile, feed.InspectionsFile, feed.FeedInfoFile, feed.LegendFile, feed.ReadmeFile} {
		if _, ok := tables[name]; !ok {
			t.Fatalf("archive missing %s", name)
		}
	}

	bs := tables[feed.BusinessesFile]
	if strings.Join(bs[0], ",") != "business_id,name,address,city,state,postal_code,latitude,longitude,phone_number" {
		t.Fatalf("unexpected businesses header: %v", bs[0])
	}
	if strings.Join(bs[1], ",") != "10637887,111 Murphys Deli,111 CONGRESS AVE,AUSTIN,TX,78701,30.26392,-97.74431," {
		t.Fatalf("unexpected business row: %v", bs[1])
	}
	if len(bs) != 3 {
		t.Fatalf("expected 2 business rows, got %d", len(bs)-1)
	}

	ins := tables[feed.InspectionsFile]
	if strings.Join(ins[0], ",") != "business_id,score,date,description,type" || len(ins) != 5 {
		t.Fatalf("unexpected inspections: %v", ins)
	}
	if strings.Join(ins[4], ",") != "10637888,,20130217,," {
		t.Fatalf("unexpected last inspection: %v", ins[4])
	}

	fi := tables[feed.FeedInfoFile]
	if strings.Join(fi[1], ",") != "2026-10-16,1.0,City of Austin,https://data.austintexas.gov,open.data@austintexas.gov" {
		t.Fatalf("unexpected feed info: %v", fi)
	}
	lg := tables[feed.LegendFile]
	if len(lg) != 3 || strings.Join(lg[1], ",") != "70,100,pass" || strings.Join(lg[2], ",") != "0,69,re-inspection required" {
		t.Fatalf("unexpected legend: %v", lg)
	}

	if got := repo.replaced["austin"]; len(got.Businesses) != 2 || len(got.Inspections) != 4 {
		t.Fatalf("expected feed published to repo, got %+v", got)
	}
	if gen, ok := cache.store["gen:austin"].(int64); !ok || gen == 0 {
		t.Fatalf("expected cache generation to be bumped, have %v", cache.store)
	}
}

func TestFeedService_Run_RepublishInvalidatesReads(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{
		b: domain.Business{ID: "10637887", Name: "OLD NAME"},
		page: domain.InspectionsPage{Items: []domain.Inspection{
			{BusinessID: "10637887", Date: "20130116"},
		}},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	// warm the cache at a non-default limit
	if _, err := q.ListInspections(ctx, "austin", "10637887", 10); err != nil {
		t.Fatalf("ListInspections: %v", err)
	}
	if _, err := q.GetBusiness(ctx, "austin", "10637887"); err != nil {
		t.Fatalf("GetBusiness: %v", err)
	}

	svc := app.NewFeedService(fileSource{}, repo, cache, app.Options{
		Strategy:  domain.IDFacility,
		DestDir:   t.TempDir(),
		PublishDB: true,
		Now:       fixedNow,
	})
	if _, err := svc.Run(ctx, austin("testdata/rows.json")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	repo.b.Name = "NEW NAME"
	repo.page = domain.InspectionsPage{Items: []domain.Inspection{
		{BusinessID: "10637887", Date: "20130215"},
	}}

	out, err := q.ListInspections(ctx, "austin", "10637887", 10)
	if err != nil {
		t.Fatalf("ListInspections: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Date != "20130215" {
		t.Fatalf("stale inspections served after republish: %+v", out.Items)
	}
	b, err := q.GetBusiness(ctx, "austin", "10637887")
	if err != nil {
		t.Fatalf("GetBusiness: %v", err)
	}
	if b.Name != "NEW NAME" {
		t.Fatalf("stale business served after republish: %s", b.Name)
	}
}

func TestFeedService_Run_Deterministic(t *testing.T) {
	for _, s := range []domain.IDStrategy{domain.IDFacility, domain.IDLegacy} {
		var got [2]map[string][][]string
		for i := range got {
			dest := t.TempDir()
			svc := app.NewFeedService(fileSource{}, nil, nil, app.Options{Strategy: s, DestDir: dest, Now: fixedNow})
			res, err := svc.Run(context.Background(), austin("testdata/rows.json"))
			if err != nil {
				t.Fatalf("%s: Run: %v", s, err)
			}
			got[i] = readArchive(t, res.Archive)
		}
		for _, name := range []string{feed.BusinessesFile, feed.InspectionsFile} {
			if !equalTables(got[0][name], got[1][name]) {
				t.Fatalf("%s: %s differs between runs", s, name)
			}
		}
	}
}

func TestFeedService_Run_AllOrNothing(t *testing.T) {
	const bad = `{"meta":{"view":{"columns":[
		{"name":"Restaurant Name"},{"name":"Address"},{"name":"Facility ID"},{"name":"Score"},{"name":"Inspection Date"}]}},
	"data":[
		["A",["{\"address\":\"1 MAIN\"}",null,null,null,false],"1","90",1358294400],
		["B",null,"2","80",1358294400]]}`

	for _, s := range []domain.IDStrategy{domain.IDFacility, domain.IDLegacy} {
		dest := t.TempDir()
		// a previous archive must survive a failed run untouched
		prev := filepath.Join(dest, "austin_lives.zip")
		if err := os.WriteFile(prev, []byte("previous"), 0o644); err != nil {
			t.Fatal(err)
		}
		repo := &fakeRepo{}
		svc := app.NewFeedService(stringSource(bad), repo, nil, app.Options{Strategy: s, DestDir: dest, PublishDB: true})

		_, err := svc.Run(context.Background(), austin("inline"))
		if !errors.Is(err, domain.ErrMalformedAddress) {
			t.Fatalf("%s: expected ErrMalformedAddress, got %v", s, err)
		}
		b, _ := os.ReadFile(prev)
		if string(b) != "previous" {
			t.Fatalf("%s: destination archive was modified", s)
		}
		entries, _ := os.ReadDir(dest)
		if len(entries) != 1 {
			t.Fatalf("%s: expected no new files in dest, got %d entries", s, len(entries))
		}
		if repo.replaced != nil {
			t.Fatalf("%s: nothing should be published on failure", s)
		}
	}
}

func TestFeedService_RunAll(t *testing.T) {
	dest := t.TempDir()
	svc := app.NewFeedService(fileSource{}, nil, nil, app.Options{Strategy: domain.IDFacility, DestDir: dest, Now: fixedNow})

	good := austin("testdata/rows.json")
	other := good
	other.Key, other.ArchiveName = "austin-copy", "austin_copy.zip"
	missing := good
	missing.Key, missing.ArchiveName, missing.SourceURL = "missing", "missing.zip", "testdata/missing.json"

	err := svc.RunAll(context.Background(), []domain.Municipality{good, other, missing}, 2)
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected joined error naming the failed feed, got %v", err)
	}
	for _, name := range []string{"austin_lives.zip", "austin_copy.zip"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "missing.zip")); !os.IsNotExist(err) {
		t.Fatalf("failed feed must not produce an archive")
	}
}

func equalTables(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.Join(a[i], "\x1f") != strings.Join(b[i], "\x1f") {
			return false
		}
	}
	return true
}
