package nacos

import (
	"errors"
	"testing"

	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

type fakeRegistrar struct {
	registered   *vo.RegisterInstanceParam
	deregistered *vo.DeregisterInstanceParam
	ok           bool
	err          error
}

func (f *fakeRegistrar) RegisterInstance(p vo.RegisterInstanceParam) (bool, error) {
	f.registered = &p
	return f.ok, f.err
}

func (f *fakeRegistrar) DeregisterInstance(p vo.DeregisterInstanceParam) (bool, error) {
	f.deregistered = &p
	return true, f.err
}

func TestParseServerAddrs(t *testing.T) {
	cfgs, err := ParseServerAddrs("10.0.0.1:8848, 10.0.0.2:8849")
	if err != nil {
		t.Fatalf("ParseServerAddrs returned error: %v", err)
	}
	if len(cfgs) != 2 || cfgs[1].IpAddr != "10.0.0.2" || cfgs[1].Port != 8849 {
		t.Errorf("unexpected configs %+v", cfgs)
	}
	for _, bad := range []string{"", "localhost", "localhost:abc"} {
		if _, err := ParseServerAddrs(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestRegisterAndDeregister(t *testing.T) {
	f := &fakeRegistrar{ok: true}
	c := NewWithRegistrar(f, "")

	if err := c.RegisterServiceInstance("sky-server", "10.1.1.1", 8080); err != nil {
		t.Fatalf("RegisterServiceInstance returned error: %v", err)
	}
	if f.registered.GroupName != "DEFAULT_GROUP" || !f.registered.Ephemeral || f.registered.Port != 8080 {
		t.Errorf("unexpected register param %+v", f.registered)
	}
	if err := c.DeregisterServiceInstance("sky-server", "10.1.1.1", 8080); err != nil {
		t.Fatalf("DeregisterServiceInstance returned error: %v", err)
	}
	if f.deregistered.ServiceName != "sky-server" {
		t.Errorf("unexpected deregister param %+v", f.deregistered)
	}
}

func TestRegister_NotAccepted(t *testing.T) {
	c := NewWithRegistrar(&fakeRegistrar{ok: false}, "G")
	if err := c.RegisterServiceInstance("sky-server", "10.1.1.1", 8080); err == nil {
		t.Error("expected error when nacos rejects registration")
	}
	c = NewWithRegistrar(&fakeRegistrar{err: errors.New("down")}, "G")
	if err := c.RegisterServiceInstance("sky-server", "10.1.1.1", 8080); err == nil {
		t.Error("expected error when nacos is down")
	}
}
