// Package storage keeps generated site credentials in an S3 bucket, encrypted at rest, so
// they survive beyond the single response that returns them.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/credentials"
	"github.com/Builder-Lawyers/site-provisioner/pkg/env"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

const refScheme = "s3://"

type VaultConfig struct {
	Bucket string
	Prefix string
}

func NewVaultConfig() VaultConfig {
	return VaultConfig{
		Bucket: env.GetEnv("S3_CREDENTIALS_BUCKET", ""),
		Prefix: env.GetEnv("S3_CREDENTIALS_PREFIX", "credentials"),
	}
}

// Enabled reports whether a bucket is configured. Without one credentials are only
// returned to the caller.
func (c VaultConfig) Enabled() bool {
	return c.Bucket != ""
}

type CredentialVault struct {
	client *s3.Client
	cfg    VaultConfig
}

var _ interfaces.CredentialVault = (*CredentialVault)(nil)

func NewCredentialVault(config aws.Config, cfg VaultConfig) *CredentialVault {
	return &CredentialVault{
		client: s3.NewFromConfig(config, func(o *s3.Options) {
			o.UsePathStyle = true
		}),
		cfg: cfg,
	}
}

// Store writes creds under the provision id and returns the s3:// reference kept on the record.
func (v *CredentialVault) Store(ctx context.Context, provisionID uuid.UUID, creds credentials.Credentials) (string, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("err marshalling credentials, %v", err)
	}
	key := path.Join(v.cfg.Prefix, provisionID.String()+".json")
	_, err = v.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(v.cfg.Bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(data),
		ContentType:          aws.String("application/json"),
		ContentLength:        aws.Int64(int64(len(data))),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return "", fmt.Errorf("error storing credentials for %v: %v", provisionID, err)
	}
	return refScheme + v.cfg.Bucket + "/" + key, nil
}

func (v *CredentialVault) Load(ctx context.Context, ref string) (credentials.Credentials, error) {
	bucket, key, err := parseRef(ref)
	if err != nil {
		return credentials.Credentials{}, err
	}
	resp, err := v.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return credentials.Credentials{}, fmt.Errorf("error downloading credentials %v: %v", ref, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var creds credentials.Credentials
	if err = json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return credentials.Credentials{}, fmt.Errorf("error decoding credentials %v: %v", ref, err)
	}
	return creds, nil
}

func (v *CredentialVault) Delete(ctx context.Context, ref string) error {
	bucket, key, err := parseRef(ref)
	if err != nil {
		return err
	}
	_, err = v.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return fmt.Errorf("error deleting credentials %v: %v", ref, err)
	}
	return nil
}

func parseRef(ref string) (string, string, error) {
	rest, ok := strings.CutPrefix(ref, refScheme)
	if !ok {
		return "", "", fmt.Errorf("not a vault reference: %q", ref)
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed vault reference: %q", ref)
	}
	return bucket, key, nil
}
