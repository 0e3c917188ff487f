package option

import "github.com/jtulak/xfsprogs-dev/internal/mkfserr"

// CheckWrite evaluates every conflict declared on the suboption just
// assigned, per §4.2. It is called by the parser immediately after each
// assignment so a conflict involving a peer fires at the earliest
// detectable moment.
func CheckWrite(ctx *Context, group byte, name string) error {
	so, ok := ctx.SubOption(group, name)
	if !ok {
		return nil
	}
	self := ctx.Value(group, name)
	for _, cf := range so.Conflicts {
		if fires, err := evalConflict(ctx, cf, self); err != nil {
			return err
		} else if fires {
			return mkfserr.New(mkfserr.Conflict, cf.Message)
		}
	}
	return nil
}

// CheckAll re-evaluates every conditional conflict in the schema. Called
// once after default fill-in (§4.3) so that a user who only set one side of
// a conflicting pair still gets caught when the other side's default value
// would trigger it.
func CheckAll(ctx *Context) error {
	for _, g := range ctx.Schema.Groups {
		for i := range g.SubOptions {
			so := &g.SubOptions[i]
			self := ctx.Value(g.Name, so.Name)
			for _, cf := range so.Conflicts {
				if cf.Unconditional {
					// Unconditional conflicts only apply to a suboption the
					// user wrote; CheckWrite already tested them at that write.
					continue
				}
				if fires, err := evalConflict(ctx, cf, self); err != nil {
					return err
				} else if fires {
					return mkfserr.New(mkfserr.Conflict, cf.Message)
				}
			}
		}
	}
	return nil
}

func evalConflict(ctx *Context, cf Conflict, self Value) (bool, error) {
	if cf.Unconditional {
		return ctx.Seen(cf.Other.Group, cf.Other.Name), nil
	}
	if cf.Predicate != nil {
		return cf.Predicate(ctx), nil
	}
	if !self.Equal(cf.AndSelfEquals) {
		return false, nil
	}
	if !cf.IncludeDefaults && !ctx.Seen(cf.Other.Group, cf.Other.Name) {
		return false, nil
	}
	other := ctx.Value(cf.Other.Group, cf.Other.Name)
	return other.Equal(cf.WhenOtherEquals), nil
}
