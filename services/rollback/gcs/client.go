// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gcs reads the deployment record store: the append-only,
// comma-delimited release-to-version mapping and the schema tag,
// both kept as objects in the dev project's deployment bucket.
//
// The record store is the source of truth for "what should be serving";
// this package only ever reads it.
package gcs

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/AleutianAI/rollback/pkg/logging"
	"github.com/AleutianAI/rollback/services/rollback/catalog"
)

// Client resolves release tags against the deployment records of one
// dev project.
type Client struct {
	storageClient *storage.Client
	devProject    string
	log           *logging.Logger
}

// NewClient builds the release catalog gateway. Credentials resolve via
// Application Default Credentials unless overridden through opts.
func NewClient(ctx context.Context, devProject string, log *logging.Logger, opts ...option.ClientOption) (*Client, error) {
	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	if log == nil {
		log = logging.Default()
	}
	return &Client{storageClient: storageClient, devProject: devProject, log: log}, nil
}

// Close releases the underlying storage client.
func (c *Client) Close() error {
	return c.storageClient.Close()
}

func (c *Client) bucketName() string {
	return c.devProject + "-deployed-tags"
}

func versionMapObject(env string) string {
	return fmt.Sprintf("release.%s.versions", env)
}

func schemaTagObject(env string) string {
	return fmt.Sprintf("schema.%s.tag", env)
}

// ResolveVersions returns the versions recorded for a release tag in an
// environment, grouped by service. Duplicate records deduplicate; a
// record with the wrong field count is a fatal parse error.
func (c *Client) ResolveVersions(ctx context.Context, env, releaseTag string) ([]catalog.ServiceVersionSet, error) {
	content, err := c.readObject(ctx, versionMapObject(env))
	if err != nil {
		return nil, err
	}
	sets, err := catalog.ParseVersionMap(content, releaseTag)
	if err != nil {
		return nil, fmt.Errorf("parse %s/%s: %w", c.bucketName(), versionMapObject(env), err)
	}
	c.log.Debug("resolved release tag", "tag", releaseTag, "env", env, "services", len(sets))
	return sets, nil
}

// SchemaTag returns the release tag of the SQL schema currently
// deployed in the environment; the compatibility gate tests the target
// release against it.
func (c *Client) SchemaTag(ctx context.Context, env string) (string, error) {
	content, err := c.readObject(ctx, schemaTagObject(env))
	if err != nil {
		return "", err
	}
	tag, err := catalog.ParseSchemaTag(content)
	if err != nil {
		return "", fmt.Errorf("parse %s/%s: %w", c.bucketName(), schemaTagObject(env), err)
	}
	return tag, nil
}

func (c *Client) readObject(ctx context.Context, object string) (string, error) {
	reader, err := c.storageClient.Bucket(c.bucketName()).Object(object).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("open gs://%s/%s: %w", c.bucketName(), object, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read gs://%s/%s: %w", c.bucketName(), object, err)
	}
	return string(data), nil
}
