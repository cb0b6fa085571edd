package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nm2tech/classmate/core"
	"github.com/nm2tech/classmate/core/user"
)

// addUser creates a user, or resets the password and role of an existing one.
func (cli *commandLine) addUser(uname, name, role, email, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Username: uname,
			Name:     name,
			Role:     role,
			Email:    email,
			Password: pwd,
		})
		return err
	}

	if _, err = cli.usrSvc.SetPassword(ctx, usr.ID, pwd); err != nil {
		return err
	}
	return nil
}
