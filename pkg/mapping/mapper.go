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

// Package mapping places controller venues in the inventory location
// hierarchy.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/carverauto/r1sync/pkg/identity"
	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/syncerr"
)

// DefaultSlugPrefix prefixes every venue slug.
const DefaultSlugPrefix = "r1"

const nameMaxLen = 100

var (
	errInvalidMode    = errors.New("invalid venue mapping mode")
	errNoParentSite   = errors.New("a parent site reference is required when the venue mapping mode is 'locations'")
	errParentNotFound = errors.New("parent site not found (by id, slug or name)")
)

// Venue is the controller venue being placed.
type Venue struct {
	ID   string
	Name string
}

// Params carries the per-tenant mapping settings.
type Params struct {
	Mode              models.VenueMappingMode
	TenantID          int64
	SiteGroup         *models.SiteGroup
	ParentSiteRef     string
	ChildLocationName string
	SlugPrefix        string
}

// ParamsFor derives mapping parameters from a tenant config.
func ParamsFor(cfg *models.TenantConfig, group *models.SiteGroup, slugPrefix string) Params {
	return Params{
		Mode:              cfg.MappingMode(),
		TenantID:          cfg.TenantID,
		SiteGroup:         group,
		ParentSiteRef:     strings.TrimSpace(cfg.VenueMapping.ParentSiteRef),
		ChildLocationName: cfg.VenueMapping.ChildLocationName,
		SlugPrefix:        slugPrefix,
	}
}

// Result is where a venue landed. DeviceSite is always set; the other
// fields depend on the mode.
type Result struct {
	DeviceSite     *models.Site
	DeviceLocation *models.Location
	VenueSite      *models.Site
	VenueLocation  *models.Location
}

// Placement is the target for every object discovered under the venue.
func (r *Result) Placement() inventory.Placement {
	return inventory.Placement{Site: r.DeviceSite, Location: r.DeviceLocation}
}

// Mapper resolves venues against a Repo. It caches the resolved parent
// site, so use one per run.
type Mapper struct {
	repo    inventory.Repo
	logger  logger.Logger
	parents map[string]*models.Site
}

func New(repo inventory.Repo, log logger.Logger) *Mapper {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Mapper{repo: repo, logger: log, parents: make(map[string]*models.Site)}
}

// VenueSlug is slug(prefix-base) where base is the venue id, else the name,
// else "venue".
func VenueSlug(prefix, venueID, name string) string {
	base := identity.FirstNonEmpty(venueID, name, "venue")
	return identity.Slug(identity.FirstNonEmpty(prefix, DefaultSlugPrefix) + "-" + base)
}

// MapVenue gets or creates the site and location objects for v and
// reconciles their names, group and tenant.
//
// sites: one top-level site per venue, keyed by VenueSlug.
// locations: one location per venue under the parent site, keyed by the
// venue name, so same-named venues share a location.
// both: sites, plus a child location named ChildLocationName.
func (m *Mapper) MapVenue(ctx context.Context, v Venue, p Params) (*Result, error) {
	mode := models.VenueMappingMode(strings.ToLower(strings.TrimSpace(string(p.Mode))))
	if mode == "" {
		mode = models.VenueMappingSites
	}

	v.ID = strings.TrimSpace(v.ID)
	v.Name = identity.FirstNonEmpty(v.Name, v.ID, "Venue")

	switch mode {
	case models.VenueMappingSites, models.VenueMappingBoth:
		site, err := m.venueSite(ctx, v, p)
		if err != nil {
			return nil, err
		}

		res := &Result{DeviceSite: site, VenueSite: site}

		if mode == models.VenueMappingBoth {
			child := identity.FirstNonEmpty(p.ChildLocationName, models.DefaultChildLocationName)

			loc, err := m.location(ctx, site, identity.Slug(site.Slug+"-"+child), child)
			if err != nil {
				return nil, err
			}

			res.DeviceLocation = loc
			res.VenueLocation = loc
		}

		return res, nil
	case models.VenueMappingLocations:
		parent, err := m.parentSite(ctx, p.ParentSiteRef)
		if err != nil {
			return nil, err
		}

		loc, err := m.location(ctx, parent, VenueSlug(p.SlugPrefix, "", v.Name), v.Name)
		if err != nil {
			return nil, err
		}

		return &Result{DeviceSite: parent, DeviceLocation: loc, VenueLocation: loc}, nil
	}

	return nil, syncerr.New(syncerr.KindConfiguration, "map venue", fmt.Errorf("%w: %q", errInvalidMode, mode))
}

func (m *Mapper) venueSite(ctx context.Context, v Venue, p Params) (*models.Site, error) {
	slug := VenueSlug(p.SlugPrefix, v.ID, v.Name)
	name := identity.Clip(v.Name, nameMaxLen)

	var group *int64
	if p.SiteGroup != nil {
		group = models.Int64Ptr(p.SiteGroup.ID)
	}

	site, created, err := m.repo.EnsureSite(ctx, &models.Site{
		Name:        name,
		Slug:        slug,
		GroupID:     group,
		TenantID:    p.TenantID,
		Status:      models.StatusActive,
		Description: "RUCKUS One Venue " + v.ID,
	})
	if err != nil {
		return nil, syncerr.New(syncerr.KindStoreWrite, "ensure site", err)
	}

	if created {
		m.logger.Debug().Str("venue_id", v.ID).Str("slug", slug).Msg("Created venue site")
		return site, nil
	}

	changed := false

	if site.Name != name {
		site.Name = name
		changed = true
	}

	if !models.SameRef(site.GroupID, group) {
		site.GroupID = group
		changed = true
	}

	if site.TenantID != p.TenantID {
		site.TenantID = p.TenantID
		changed = true
	}

	if changed {
		if err := m.repo.UpdateSite(ctx, site); err != nil {
			return nil, syncerr.New(syncerr.KindStoreWrite, "update site", err)
		}
	}

	return site, nil
}

func (m *Mapper) location(ctx context.Context, site *models.Site, slug, name string) (*models.Location, error) {
	name = identity.Clip(name, nameMaxLen)

	loc, created, err := m.repo.EnsureLocation(ctx, &models.Location{SiteID: site.ID, Slug: slug, Name: name})
	if err != nil {
		return nil, syncerr.New(syncerr.KindStoreWrite, "ensure location", err)
	}

	if !created && loc.Name != name {
		loc.Name = name

		if err := m.repo.UpdateLocation(ctx, loc); err != nil {
			return nil, syncerr.New(syncerr.KindStoreWrite, "update location", err)
		}
	}

	return loc, nil
}

// parentSite resolves ref as a numeric id, then a slug, then a
// case-insensitive name.
func (m *Mapper) parentSite(ctx context.Context, ref string) (*models.Site, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, syncerr.New(syncerr.KindConfiguration, "map venue", errNoParentSite)
	}

	if site, ok := m.parents[ref]; ok {
		return site, nil
	}

	lookups := []func() (*models.Site, error){
		func() (*models.Site, error) { return m.repo.SiteBySlug(ctx, ref) },
		func() (*models.Site, error) { return m.repo.SiteByName(ctx, ref) },
	}

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		lookups = append([]func() (*models.Site, error){
			func() (*models.Site, error) { return m.repo.SiteByID(ctx, id) },
		}, lookups...)
	}

	for _, lookup := range lookups {
		site, err := lookup()
		if err == nil {
			m.parents[ref] = site
			return site, nil
		}

		if !errors.Is(err, inventory.ErrNotFound) {
			return nil, syncerr.New(syncerr.KindStoreWrite, "resolve parent site", err)
		}
	}

	return nil, syncerr.New(syncerr.KindConfiguration, "map venue", fmt.Errorf("%w: %s", errParentNotFound, ref))
}
