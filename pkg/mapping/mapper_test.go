/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mapping

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/inventory/memstore"
	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/syncerr"
)

func begin(t *testing.T, store *memstore.Store) inventory.Tx {
	t.Helper()

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	return tx
}

func TestVenueSlug(t *testing.T) {
	assert.Equal(t, "r1-abc123", VenueSlug("r1", "ABC123", "HQ"))
	assert.Equal(t, "r1-main-office", VenueSlug("", "", "Main Office"))
	assert.Equal(t, "r1-venue", VenueSlug("r1", "", ""))
}

func TestSitesModeIsIdempotent(t *testing.T) {
	store := memstore.New()
	tx := begin(t, store)
	m := New(tx, logger.NewTestLogger())

	p := Params{Mode: models.VenueMappingSites, TenantID: 7, SlugPrefix: "r1"}

	first, err := m.MapVenue(context.Background(), Venue{ID: "v1", Name: "HQ"}, p)
	require.NoError(t, err)
	require.NotNil(t, first.DeviceSite)
	assert.Nil(t, first.DeviceLocation)
	assert.Same(t, first.DeviceSite, first.VenueSite)
	assert.Equal(t, "r1-v1", first.DeviceSite.Slug)
	assert.Equal(t, "RUCKUS One Venue v1", first.DeviceSite.Description)

	second, err := m.MapVenue(context.Background(), Venue{ID: "v1", Name: "HQ"}, p)
	require.NoError(t, err)
	assert.Equal(t, first.DeviceSite.ID, second.DeviceSite.ID)

	require.NoError(t, tx.Commit(context.Background()))

	inv := store.Snapshot()
	require.Len(t, inv.Sites, 1)
	assert.Equal(t, "HQ", inv.Sites[0].Name)
}

func TestSitesModeReconcilesNameAndGroup(t *testing.T) {
	store := memstore.New()
	tx := begin(t, store)
	m := New(tx, nil)

	group := &models.SiteGroup{ID: 99, Name: "Ruckus", Slug: "ruckus"}

	_, err := m.MapVenue(context.Background(), Venue{ID: "v1", Name: "HQ"}, Params{TenantID: 7})
	require.NoError(t, err)

	res, err := m.MapVenue(context.Background(), Venue{ID: "v1", Name: "Headquarters"}, Params{TenantID: 8, SiteGroup: group})
	require.NoError(t, err)

	require.NoError(t, tx.Commit(context.Background()))

	inv := store.Snapshot()
	require.Len(t, inv.Sites, 1)
	assert.Equal(t, res.DeviceSite.ID, inv.Sites[0].ID)
	assert.Equal(t, "Headquarters", inv.Sites[0].Name)
	assert.Equal(t, int64(8), inv.Sites[0].TenantID)
	require.NotNil(t, inv.Sites[0].GroupID)
	assert.Equal(t, int64(99), *inv.Sites[0].GroupID)
}

func TestBothModeAddsChildLocation(t *testing.T) {
	store := memstore.New()
	tx := begin(t, store)
	m := New(tx, nil)

	p := Params{Mode: models.VenueMappingBoth, TenantID: 7, SlugPrefix: "r1", ChildLocationName: "Floor"}

	res, err := m.MapVenue(context.Background(), Venue{ID: "v1", Name: "HQ"}, p)
	require.NoError(t, err)
	require.NotNil(t, res.DeviceLocation)
	assert.Equal(t, res.DeviceSite.ID, res.DeviceLocation.SiteID)
	assert.Equal(t, "r1-v1-floor", res.DeviceLocation.Slug)
	assert.Equal(t, "Floor", res.DeviceLocation.Name)

	p.ChildLocationName = ""

	res, err = m.MapVenue(context.Background(), Venue{ID: "v1", Name: "HQ"}, p)
	require.NoError(t, err)
	assert.Equal(t, "Venue", res.DeviceLocation.Name)

	placement := res.Placement()
	assert.Same(t, res.DeviceSite, placement.Site)
	assert.Same(t, res.DeviceLocation, placement.Location)
}

func TestLocationsModeResolvesParent(t *testing.T) {
	store := memstore.New()
	campus := store.PutSite(models.Site{Name: "Campus", Slug: "campus"})

	for _, ref := range []string{"campus", "CAMPUS", strconv.FormatInt(campus.ID, 10)} {
		t.Run(ref, func(t *testing.T) {
			tx := begin(t, store)
			m := New(tx, nil)

			res, err := m.MapVenue(context.Background(), Venue{ID: "v1", Name: "Lab"}, Params{
				Mode:          models.VenueMappingLocations,
				ParentSiteRef: ref,
				SlugPrefix:    "r1",
			})
			require.NoError(t, err)

			assert.Equal(t, campus.ID, res.DeviceSite.ID)
			assert.Nil(t, res.VenueSite)
			require.NotNil(t, res.DeviceLocation)
			assert.Equal(t, "r1-lab", res.DeviceLocation.Slug)
			require.NoError(t, tx.Rollback(context.Background()))
		})
	}
}

func TestLocationsModeSameNameShareLocation(t *testing.T) {
	store := memstore.New()
	store.PutSite(models.Site{Name: "Campus", Slug: "campus"})

	tx := begin(t, store)
	m := New(tx, nil)

	p := Params{Mode: models.VenueMappingLocations, ParentSiteRef: "campus"}

	a, err := m.MapVenue(context.Background(), Venue{ID: "v1", Name: "Lab"}, p)
	require.NoError(t, err)

	b, err := m.MapVenue(context.Background(), Venue{ID: "v2", Name: "Lab"}, p)
	require.NoError(t, err)

	assert.Equal(t, a.DeviceLocation.ID, b.DeviceLocation.ID)
}

func TestLocationsModeErrors(t *testing.T) {
	store := memstore.New()
	tx := begin(t, store)
	m := New(tx, nil)

	_, err := m.MapVenue(context.Background(), Venue{ID: "v1"}, Params{Mode: models.VenueMappingLocations})
	require.Error(t, err)
	assert.True(t, syncerr.Is(err, syncerr.KindConfiguration))
	assert.ErrorIs(t, err, errNoParentSite)

	_, err = m.MapVenue(context.Background(), Venue{ID: "v1"}, Params{Mode: models.VenueMappingLocations, ParentSiteRef: "nowhere"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errParentNotFound)
}

func TestInvalidMode(t *testing.T) {
	store := memstore.New()
	tx := begin(t, store)

	_, err := New(tx, nil).MapVenue(context.Background(), Venue{ID: "v1"}, Params{Mode: "regions"})
	require.Error(t, err)
	assert.True(t, syncerr.Is(err, syncerr.KindConfiguration))
	assert.ErrorIs(t, err, errInvalidMode)
}

func TestParamsFor(t *testing.T) {
	cfg := models.NewTenantConfig()
	cfg.TenantID = 3
	cfg.VenueMapping = models.VenueMapping{Mode: "BOTH", ParentSiteRef: " campus ", ChildLocationName: "Floor"}

	p := ParamsFor(cfg, nil, "r1")
	assert.Equal(t, models.VenueMappingBoth, p.Mode)
	assert.Equal(t, "campus", p.ParentSiteRef)
	assert.Equal(t, int64(3), p.TenantID)
}
