package guard

import (
	"net/http"
)

// Policy describes who may invoke an operation.
type Policy struct {
	Public          bool
	ResourcePath    string
	RequiredActions []string
}

// AuthenticatedOnly admits any caller with a valid session.
func AuthenticatedOnly() Policy {
	return Policy{}
}

func Public() Policy {
	return Policy{Public: true}
}

// Require demands every listed action on path.
func Require(path string, actions ...string) Policy {
	return Policy{ResourcePath: path, RequiredActions: actions}
}

// Table maps an operation id ("METHOD /route/:template") to its policy.
type Table map[string]Policy

func OperationID(method, fullPath string) string {
	return method + " " + fullPath
}

// Lookup returns the policy for a matched route. Unknown routes report false
// and must be denied.
func (t Table) Lookup(method, fullPath string) (Policy, bool) {
	if fullPath == "" {
		return Policy{}, false
	}
	policy, ok := t[OperationID(method, fullPath)]
	return policy, ok
}

// ConsolePolicies is the policy table for the back-office HTTP API.
func ConsolePolicies() Table {
	return Table{
		OperationID(http.MethodPost, "/auth/login"):   Public(),
		OperationID(http.MethodPost, "/auth/refresh"): Public(),
		OperationID(http.MethodPost, "/auth/logout"):  Public(),
		OperationID(http.MethodGet, "/auth/me"):       AuthenticatedOnly(),
		OperationID(http.MethodGet, "/healthz"):       Public(),
		OperationID(http.MethodGet, "/metrics"):       Public(),

		OperationID(http.MethodGet, "/users"):                            Require("/users", "view"),
		OperationID(http.MethodGet, "/users/:id"):                        Require("/users", "view"),
		OperationID(http.MethodPost, "/users"):                           Require("/users", "create"),
		OperationID(http.MethodPut, "/users/:id/password"):               Require("/users", "update"),
		OperationID(http.MethodDelete, "/users/:id"):                     Require("/users", "delete"),
		OperationID(http.MethodPut, "/users/:id/actions/:actionId"):      Require("/users", "update"),
		OperationID(http.MethodGet, "/resources"):                        Require("/resources", "view"),
		OperationID(http.MethodPost, "/resources"):                       Require("/resources", "create"),
		OperationID(http.MethodPut, "/resources/:alias"):                 Require("/resources", "update"),
		OperationID(http.MethodPost, "/resources/:alias/details"):        Require("/resources", "create"),
		OperationID(http.MethodPost, "/resource-details/:alias/actions"): Require("/resources", "create"),
		OperationID(http.MethodPut, "/actions/:id/active"):               Require("/resources", "update"),
		OperationID(http.MethodGet, "/roles"):                            Require("/roles", "view"),
		OperationID(http.MethodPost, "/roles"):                           Require("/roles", "create"),
		OperationID(http.MethodPost, "/roles/:id/users"):                 Require("/roles", "update"),
		OperationID(http.MethodDelete, "/roles/:id/users/:userId"):       Require("/roles", "update"),
		OperationID(http.MethodPut, "/roles/:id/actions/:actionId"):      Require("/roles", "update"),
	}
}
