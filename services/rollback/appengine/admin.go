// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package appengine wraps the App Engine Admin REST API for the
// rollback tool: serving-version queries, version configuration
// queries, and the activate/deactivate mutations.
//
// List calls are forced to return their complete result in one page by
// requesting a page size larger than the platform's maximum object
// count. A continuation token in a response therefore indicates a
// configuration bug and fails with PagingError instead of silently
// producing a partial snapshot.
package appengine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	gae "google.golang.org/api/appengine/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/AleutianAI/rollback/pkg/logging"
	"github.com/AleutianAI/rollback/services/rollback/catalog"
)

// DefaultServices is the managed service set of the application
// platform. A rollback run reconciles exactly these services.
var DefaultServices = []string{"backend", "default", "pubapi", "tools"}

// defaultPageSize exceeds the platform's maximum number of services and
// versions per project, so list calls never paginate.
const defaultPageSize int64 = 250

// Config controls Admin construction.
type Config struct {
	// Project is the GCP project serving the application.
	Project string

	// Services overrides DefaultServices when non-empty.
	Services []string

	// PageSize overrides defaultPageSize when positive. Tests only.
	PageSize int64
}

// Admin is the platform gateway handle. It is stateless apart from the
// authenticated API client and is passed explicitly to its consumers;
// there is no process-wide singleton.
type Admin struct {
	api      *gae.APIService
	project  string
	managed  map[string]struct{}
	pageSize int64
	log      *logging.Logger
}

// NewAdmin builds the gateway for one project. Credentials resolve via
// Application Default Credentials unless overridden through opts.
func NewAdmin(ctx context.Context, cfg Config, log *logging.Logger, opts ...option.ClientOption) (*Admin, error) {
	api, err := gae.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create appengine admin client: %w", err)
	}
	return newAdmin(api, cfg, log), nil
}

func newAdmin(api *gae.APIService, cfg Config, log *logging.Logger) *Admin {
	if log == nil {
		log = logging.Default()
	}
	services := cfg.Services
	if len(services) == 0 {
		services = DefaultServices
	}
	managed := make(map[string]struct{}, len(services))
	for _, id := range services {
		managed[id] = struct{}{}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Admin{
		api:      api,
		project:  cfg.Project,
		managed:  managed,
		pageSize: pageSize,
		log:      log,
	}
}

// ListServingVersions returns, per managed service, the versions
// currently receiving nonzero traffic allocation. A service with
// traffic split across versions returns all of them; a managed service
// with no allocated traffic is reported with an empty version set.
func (a *Admin) ListServingVersions(ctx context.Context) ([]catalog.ServiceVersionSet, error) {
	resp, err := a.api.Apps.Services.List(a.project).PageSize(a.pageSize).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list services of %s: %w", a.project, err)
	}
	if resp.NextPageToken != "" {
		return nil, &PagingError{Call: fmt.Sprintf("apps.services.list(%s)", a.project)}
	}
	return servingFromServices(resp.Services, a.managed), nil
}

// GetVersionConfigs returns the rollback-relevant configuration for
// exactly the requested identities. Identities that no longer exist on
// the platform are silently omitted; the caller decides whether a
// missing config is fatal.
func (a *Admin) GetVersionConfigs(ctx context.Context, requested []catalog.VersionKey) ([]catalog.VersionConfig, error) {
	wantedByService := make(map[string]map[string]struct{})
	for _, key := range requested {
		if wantedByService[key.ServiceID] == nil {
			wantedByService[key.ServiceID] = make(map[string]struct{})
		}
		wantedByService[key.ServiceID][key.VersionID] = struct{}{}
	}

	var configs []catalog.VersionConfig
	for _, serviceID := range sortedServiceIDs(wantedByService) {
		resp, err := a.api.Apps.Services.Versions.List(a.project, serviceID).
			PageSize(a.pageSize).Context(ctx).Do()
		if err != nil {
			if isNotFound(err) {
				// The whole service is gone; its versions are omitted
				// like any other unknown identity.
				a.log.Warn("service not found while resolving version configs",
					"service", serviceID)
				continue
			}
			return nil, fmt.Errorf("list versions of %s/%s: %w", a.project, serviceID, err)
		}
		if resp.NextPageToken != "" {
			return nil, &PagingError{
				Call: fmt.Sprintf("apps.services.versions.list(%s/%s)", a.project, serviceID),
			}
		}
		configs = append(configs, configsFromVersions(serviceID, resp.Versions, wantedByService[serviceID])...)
	}
	return configs, nil
}

// Activate moves a version into the serving state for its service and
// migrates the service's whole traffic split to it. Manual-scaling
// versions get their recorded instance count restored first; they do
// not scale back up on their own.
func (a *Admin) Activate(ctx context.Context, cfg catalog.VersionConfig) error {
	patch := &gae.Version{ServingStatus: "SERVING"}
	mask := "servingStatus"
	if cfg.IsManualScaling() {
		patch.ManualScaling = &gae.ManualScaling{Instances: *cfg.ManualScalingInstances}
		mask = "servingStatus,manualScaling.instances"
	}

	if _, err := a.api.Apps.Services.Versions.Patch(a.project, cfg.ServiceID, cfg.VersionID, patch).
		UpdateMask(mask).Context(ctx).Do(); err != nil {
		return fmt.Errorf("start serving %s: %w", cfg.VersionKey, err)
	}

	split := &gae.Service{
		Split: &gae.TrafficSplit{Allocations: map[string]float64{cfg.VersionID: 1.0}},
	}
	if _, err := a.api.Apps.Services.Patch(a.project, cfg.ServiceID, split).
		UpdateMask("split").MigrateTraffic(false).Context(ctx).Do(); err != nil {
		return fmt.Errorf("migrate traffic to %s: %w", cfg.VersionKey, err)
	}

	a.log.Info("activated version", "version", cfg.VersionKey.String(),
		"manual_scaling", cfg.IsManualScaling())
	return nil
}

// Deactivate stops traffic and instances for one version.
func (a *Admin) Deactivate(ctx context.Context, key catalog.VersionKey) error {
	patch := &gae.Version{ServingStatus: "STOPPED"}
	if _, err := a.api.Apps.Services.Versions.Patch(a.project, key.ServiceID, key.VersionID, patch).
		UpdateMask("servingStatus").Context(ctx).Do(); err != nil {
		return fmt.Errorf("stop serving %s: %w", key, err)
	}
	a.log.Info("deactivated version", "version", key.String())
	return nil
}

// servingFromServices extracts the serving version sets from a service
// list response. Versions appearing in a service's traffic split
// allocation map are serving; everything else is not, including
// deployed versions with zero allocation.
func servingFromServices(services []*gae.Service, managed map[string]struct{}) []catalog.ServiceVersionSet {
	var sets []catalog.ServiceVersionSet
	for _, service := range services {
		if _, ok := managed[service.Id]; !ok {
			continue
		}
		set := catalog.NewServiceVersionSet(service.Id)
		if service.Split != nil {
			for versionID, allocation := range service.Split.Allocations {
				if allocation > 0 {
					set.VersionIDs[versionID] = struct{}{}
				}
			}
		}
		sets = append(sets, set)
	}
	return sets
}

// configsFromVersions filters a version list response down to the
// requested ids and captures the manual-scaling instance count when
// present.
func configsFromVersions(serviceID string, versions []*gae.Version, wanted map[string]struct{}) []catalog.VersionConfig {
	var configs []catalog.VersionConfig
	for _, version := range versions {
		if _, ok := wanted[version.Id]; !ok {
			continue
		}
		var instances *int64
		if version.ManualScaling != nil {
			n := version.ManualScaling.Instances
			instances = &n
		}
		configs = append(configs, catalog.VersionConfig{
			VersionKey:             catalog.VersionKey{ServiceID: serviceID, VersionID: version.Id},
			ManualScalingInstances: instances,
		})
	}
	return configs
}

func sortedServiceIDs(byService map[string]map[string]struct{}) []string {
	ids := make([]string, 0, len(byService))
	for id := range byService {
		ids = append(ids, id)
	}
	// Deterministic fetch order keeps logs and tests stable.
	sort.Strings(ids)
	return ids
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
