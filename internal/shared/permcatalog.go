package shared

// Permission catalog for the platform. Permission strings follow the
// "<area>:<action>" convention. The wildcard grants every permission.
const PermissionWildcard = "*"

// Frequently referenced permissions.
const (
	PermRoleCreate = "role:create"
	PermRoleView   = "role:view"
	PermRoleUpdate = "role:update"
	PermRoleDelete = "role:delete"

	PermOrgAssignRole  = "organization:assign-role"
	PermDeptAssignRole = "department:assign-role"

	PermAPIKeyCreate = "apikey:create"
	PermAPIKeyView   = "apikey:view"
	PermAPIKeyDelete = "apikey:delete"

	PermUsersView = "user:view"
)

// OrgPermissions covers organization structure and member management.
func OrgPermissions() []string {
	return []string{
		"organization:delete", "organization:view", "organization:update",
		"organization:revoke-invite", "organization:invite-user",
		"organization:manage-members", "organization:view-members",
		"department:create", "department:update", "department:view", "department:delete",
		"location:create", "location:update", "location:delete", "location:view",
		"contact_info:create", "contact_info:update", "contact_info:delete", "contact_info:view",
		PermRoleCreate, PermRoleUpdate, PermRoleDelete, PermRoleView,
		PermOrgAssignRole,
		"business-partner:delete", "business-partner:attach-to-user",
		"business-partner:update", "business-partner:create",
	}
}

// ContentPermissions covers the content lifecycle.
func ContentPermissions() []string {
	return []string{
		"content:create", "content:update", "content:delete",
		"content:publish", "content:schedule", "content:view",
		"content:approve", "content:rollback-version",
		"content-template:create", "content-template:update", "content-template:delete",
	}
}

// CampaignPermissions covers marketing campaigns.
func CampaignPermissions() []string {
	return []string{
		"campaign:create", "campaign:update", "campaign:delete",
		"campaign:view", "campaign:view-analytics", "campaign:manage-budget",
	}
}

// BillingPermissions covers billing surfaces.
func BillingPermissions() []string {
	return []string{
		"billing:view", "billing:update-payment", "billing:view-invoices",
		"billing:download-receipts",
	}
}

// ReportPermissions covers reporting.
func ReportPermissions() []string {
	return []string{"report:generate", "report:view", "report:export"}
}

// APIKeyPermissions covers machine credential administration.
func APIKeyPermissions() []string {
	return []string{PermAPIKeyCreate, PermAPIKeyView, PermAPIKeyDelete}
}

// FilePermissions covers file and folder management.
func FilePermissions() []string {
	return []string{
		"file:upload", "file:update", "file:delete", "file:view",
		"folder:create", "folder:update", "folder:delete", "folder:view",
	}
}

// FormPermissions covers forms and form templates.
func FormPermissions() []string {
	return []string{
		"form:create", "form:view", "form:update", "form:delete",
		"form:view-responses", "form-template:create", "form-template:update",
		"form-template:delete",
	}
}

// TemplatePermissions covers email templates and layouts.
func TemplatePermissions() []string {
	return []string{
		"template:create", "template:update", "template:delete",
		"layout:create", "layout:update", "layout:delete",
		"email:send", "email:receive",
	}
}

// ProjectPermissions covers projects, tasks and milestones.
func ProjectPermissions() []string {
	return []string{
		"project:create", "project:update", "project:delete",
		"project:assign-member", "project:update-member",
		"task:create", "task:update", "task:delete",
		"task:assign-member", "task:update-member",
		"milestone:create", "milestone:update", "milestone:delete",
	}
}

// CommercePermissions covers products, sales and inventory.
func CommercePermissions() []string {
	return []string{
		"product:create", "product:update", "product:delete",
		"product-variant:create", "product-variant:update", "product-variant:delete",
		"sale:create", "sale:update", "sale:delete",
		"order:create", "order:update", "order:delete",
		"inventory:create", "inventory:update", "inventory:delete",
		"price:create", "price:update", "price:delete",
		"vendor:create", "vendor:update", "vendor:delete",
		"customer:create", "customer:update", "customer:delete",
	}
}

// CategoryPermissions covers categorization.
func CategoryPermissions() []string {
	return []string{"category:create", "category:update", "category:delete"}
}

// FinancialPermissions covers invoices, refunds and payments.
func FinancialPermissions() []string {
	return []string{
		"invoice:create", "invoice:update", "invoice:delete",
		"refund:create", "refund:update", "refund:delete",
		"payment:create", "payment:update", "payment:delete",
	}
}

// AdminPermissions is every permission in the catalog, including
// organization deletion.
func AdminPermissions() []string {
	return concat(
		OrgPermissions(),
		ContentPermissions(),
		CampaignPermissions(),
		BillingPermissions(),
		ReportPermissions(),
		APIKeyPermissions(),
		FilePermissions(),
		FormPermissions(),
		TemplatePermissions(),
		ProjectPermissions(),
		CommercePermissions(),
		FinancialPermissions(),
		CategoryPermissions(),
	)
}

// DefaultRole pairs a global default role name with its permission set.
type DefaultRole struct {
	Name        string
	Description string
	Permissions []string
}

// DefaultOrgRoles lists the global default roles assignable from every
// organization. Seeded once at bootstrap; read-only afterwards.
func DefaultOrgRoles() []DefaultRole {
	adminPerms := AdminPermissions()
	return []DefaultRole{
		{Name: "superadmin", Description: "System operator with unrestricted access", Permissions: []string{PermissionWildcard}},
		{Name: "system auditor", Description: "Read-only system reporting", Permissions: append(ReportPermissions(), "logs:view")},
		{Name: "owner", Description: "Organization owner", Permissions: adminPerms},
		{Name: "admin", Description: "Organization administrator", Permissions: adminPerms[1:]}, // no organization:delete
		{Name: "agent", Description: "Commerce and finance operator", Permissions: concat(CommercePermissions(), FinancialPermissions(), CategoryPermissions(), ReportPermissions(), []string{"email:send", "email:receive"})},
		{Name: "content manager", Description: "Manages content and campaigns", Permissions: concat(ContentPermissions(), CampaignPermissions(), ReportPermissions(), []string{"email:send", "email:receive"})},
		{Name: "campaign manager", Description: "Manages campaigns", Permissions: concat(CampaignPermissions(), ReportPermissions())},
		{Name: "content editor", Description: "Edits content without approval rights", Permissions: ContentPermissions()[:5]},
		{Name: "content approver", Description: "Reviews and approves content", Permissions: []string{"content:approve", "content:view"}},
		{Name: "content creator", Description: "Creates and maintains drafts", Permissions: ContentPermissions()[:3]},
		{Name: "viewer", Description: "Read-only content access", Permissions: []string{"content:view"}},
		{Name: "guest", Description: "No standing permissions", Permissions: []string{}},
	}
}

// DefaultDepartmentRoles lists the global default roles assignable from every
// department.
func DefaultDepartmentRoles() []DefaultRole {
	return []DefaultRole{
		{
			Name:        "department head",
			Description: "Full control over department operations and strategy",
			Permissions: concat([]string{
				"department:view", "department:update", "department:view-hierarchy",
				"department:add-member", "department:remove-member", "department:view-members",
				"department:view-budget", "department:update-budget", "department:approve-funds",
				"department:manage-equipment", "department:approve-requests",
				"department:approve-content", "department:publish-content",
				"department:generate-reports", "department:view-analytics",
				"department:edit-settings", PermDeptAssignRole,
				"department:initiate-collaboration", "department:create-budget",
				"department:create-role", "department:update-role", "department:delete-role", "department:view-role",
			}, ProjectPermissions()),
		},
		{
			Name:        "department manager",
			Description: "Day-to-day operational management",
			Permissions: concat([]string{
				"department:view", "department:view-hierarchy",
				"department:view-members", "department:add-member",
				"department:view-budget", "department:request-funds",
				"department:manage-equipment", "department:request-resources",
				"department:create-content", "department:edit-content",
				"department:generate-reports", "department:create-budget",
				"department:initiate-collaboration",
			}, ProjectPermissions()),
		},
		{
			Name:        "team lead",
			Description: "Supervises a team within the department",
			Permissions: concat([]string{
				"department:view", "department:view-members",
				"department:request-resources", "department:create-content",
				"department:view-analytics",
			}, ProjectPermissions()),
		},
		{
			Name:        "content approver",
			Description: "Reviews and publishes department content",
			Permissions: []string{"department:view", "department:approve-content", "department:publish-content"},
		},
		{
			Name:        "financial officer",
			Description: "Handles budget and spending approvals",
			Permissions: []string{
				"department:view", "department:view-budget", "department:update-budget",
				"department:approve-funds", "department:create-budget",
			},
		},
		{
			Name:        "department member",
			Description: "Basic access for regular department members",
			Permissions: []string{"department:view", "department:request-resources"},
		},
	}
}

func concat(groups ...[]string) []string {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	out := make([]string, 0, total)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
