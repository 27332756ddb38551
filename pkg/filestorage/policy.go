package filestorage

import (
	"encoding/json"
	"fmt"

	common "github.com/tizianocitro/blobquickstart/pkg"
)

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// publicReadPolicy renders the S3 bucket policy equivalent of an Azure public access level.
// It returns an empty string for PRIVATE_ACCESS, meaning no policy at all.
func publicReadPolicy(bucketName string, access common.PublicAccess) (string, error) {
	anyone := map[string][]string{"AWS": {"*"}}

	var statements []policyStatement
	switch access {
	case common.PRIVATE_ACCESS:
		return "", nil
	case common.CONTAINER_ACCESS:
		statements = append(statements, policyStatement{
			Effect:    "Allow",
			Principal: anyone,
			Action:    []string{"s3:GetBucketLocation", "s3:ListBucket"},
			Resource:  []string{"arn:aws:s3:::" + bucketName},
		})
		fallthrough
	case common.BLOB_ACCESS:
		statements = append(statements, policyStatement{
			Effect:    "Allow",
			Principal: anyone,
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucketName + "/*"},
		})
	default:
		return "", fmt.Errorf("unsupported public access level: %v", access)
	}

	out, err := json.Marshal(bucketPolicy{Version: "2012-10-17", Statement: statements})
	if err != nil {
		return "", fmt.Errorf("failed to encode bucket policy: %w", err)
	}
	return string(out), nil
}
