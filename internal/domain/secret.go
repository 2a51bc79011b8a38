package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const DefaultPostgresPort = 5432

// Secret is the credential bundle stored by the AWS Secrets Manager
// rotation lambda for RDS instances. Field names follow that convention:
//
//	{
//	  "username": "", "password": "", "engine": "postgres",
//	  "host": "", "port": 5432, "dbname": "", "dbInstanceIdentifier": ""
//	}
type Secret struct {
	Username           string
	Password           string
	Engine             string
	Host               string
	Port               int
	DBName             string
	InstanceIdentifier string
}

// SecretSource fetches the decrypted secret payload for a secret name.
// Parsing the payload is the caller's concern, see ParseSecret.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) ([]byte, error)
}

type rawSecret struct {
	Username           *string     `json:"username"`
	Password           *string     `json:"password"`
	Engine             string      `json:"engine"`
	Host               *string     `json:"host"`
	Port               interface{} `json:"port"`
	DBName             *string     `json:"dbname"`
	InstanceIdentifier string      `json:"dbInstanceIdentifier"`
}

// ParseSecret decodes a rotation-lambda payload into a Secret. Missing or
// malformed fields fail with an error naming the field. A missing or zero
// port defaults to 5432; rotation lambdas written by hand sometimes store
// the port as a string, so both forms are accepted.
func ParseSecret(raw []byte) (*Secret, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rs rawSecret
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("malformed secret payload: %w", err)
	}

	for field, val := range map[string]*string{
		"username": rs.Username,
		"password": rs.Password,
		"host":     rs.Host,
		"dbname":   rs.DBName,
	} {
		if val == nil || *val == "" {
			return nil, fmt.Errorf("secret payload is missing required field %q", field)
		}
	}

	port, err := parsePort(rs.Port)
	if err != nil {
		return nil, err
	}

	return &Secret{
		Username:           *rs.Username,
		Password:           *rs.Password,
		Engine:             rs.Engine,
		Host:               *rs.Host,
		Port:               port,
		DBName:             *rs.DBName,
		InstanceIdentifier: rs.InstanceIdentifier,
	}, nil
}

func parsePort(v interface{}) (int, error) {
	switch p := v.(type) {
	case nil:
		return DefaultPostgresPort, nil
	case json.Number:
		n, err := p.Int64()
		if err != nil {
			return 0, fmt.Errorf("secret field %q is not an integer: %v", "port", p)
		}
		if n == 0 {
			return DefaultPostgresPort, nil
		}
		return int(n), nil
	case string:
		if p == "" {
			return DefaultPostgresPort, nil
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("secret field %q is not an integer: %q", "port", p)
		}
		if n == 0 {
			return DefaultPostgresPort, nil
		}
		return n, nil
	default:
		return 0, fmt.Errorf("secret field %q has unsupported type %T", "port", v)
	}
}
