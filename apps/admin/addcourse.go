package main

import (
	"context"
	"fmt"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
	identitysvc "github.com/trezcool/darasa/services/identity"
)

// addCourse publishes a new catalog.Course under the admin's identity.
func (cli *commandLine) addCourse(nc catalog.NewCourse) error {
	token, err := adminToken()
	if err != nil {
		return err
	}
	sess, err := identitysvc.ParseToken(cli.conf, token)
	if err != nil {
		return err
	}

	ctx := core.ContextWithToken(context.Background(), token)
	entry, err := cli.svc.Create(ctx, sess, nc, cli.validate)
	if err != nil {
		return err
	}
	fmt.Printf("course %q published with id %d\n", entry.Course.Name, entry.ID)
	return nil
}
