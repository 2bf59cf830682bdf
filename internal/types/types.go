package types

import "encoding/json"

// RawSignal is an unprocessed detection produced by the scanner. Field
// casing follows the scanner's wire format, which mixes display keys
// (Company, Signal) with snake_case metadata.
type RawSignal struct {
	Company          string `json:"Company,omitempty"`
	Signal           string `json:"Signal,omitempty"`
	Evidence         string `json:"Evidence,omitempty"`
	Link             string `json:"Link,omitempty"`
	Priority         string `json:"priority,omitempty"`
	Type             string `json:"type,omitempty"`
	Repo             string `json:"repo,omitempty"`
	File             string `json:"file,omitempty"`
	GoldilocksStatus string `json:"goldilocks_status,omitempty"`
	GapVerified      bool   `json:"gap_verified,omitempty"`
	Fork             bool   `json:"fork,omitempty"`
	DetectedAt       string `json:"detected_at,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	PushedAt         string `json:"pushed_at,omitempty"`
	LastCommitDate   string `json:"last_commit_date,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
}

// RepoMeta describes one scanned repository. Older scanner payloads list
// bare repo names instead of objects, so unmarshalling accepts both.
type RepoMeta struct {
	Name        string `json:"name"`
	Fork        bool   `json:"fork,omitempty"`
	Archived    bool   `json:"archived,omitempty"`
	Stars       int    `json:"stargazers_count,omitempty"`
	Watchers    int    `json:"watchers_count,omitempty"`
	PushedAt    string `json:"pushed_at,omitempty"`
	Language    string `json:"language,omitempty"`
	Description string `json:"description,omitempty"`

	// Size is the repo size in KB, used as a rough commit-count proxy.
	// Nil means unknown, which is treated as plenty of history.
	Size *int `json:"size,omitempty"`
}

func (r *RepoMeta) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*r = RepoMeta{Name: name}
		return nil
	}
	type alias RepoMeta
	var full alias
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*r = RepoMeta(full)
	return nil
}

// Contributor holds the subset of contributor metadata the scorer uses.
type Contributor struct {
	Name          string `json:"name,omitempty"`
	Company       string `json:"company,omitempty"`
	Contributions int    `json:"contributions,omitempty"`
}

// FrustrationSignal is a pain indicator collected outside the repo scan,
// such as an issue-tracker complaint about missing translations.
type FrustrationSignal struct {
	Source   string `json:"source,omitempty"`
	Evidence string `json:"evidence,omitempty"`
	Link     string `json:"link,omitempty"`
}

// ScanContext is the full scanner output for one organization and the
// request body for the score endpoint. An empty OrgLogin marks a personal
// account rather than an organization.
type ScanContext struct {
	CompanyName      string `json:"company_name,omitempty"`
	OrgLogin         string `json:"org_login,omitempty"`
	OrgName          string `json:"org_name,omitempty"`
	OrgURL           string `json:"org_url,omitempty"`
	OrgDescription   string `json:"org_description,omitempty"`
	OrgPublicRepos   int    `json:"org_public_repos,omitempty"`
	OrgPublicMembers int    `json:"org_public_members,omitempty"`
	TotalStars       int    `json:"total_stars,omitempty"`
	IsVerified       bool   `json:"is_verified,omitempty"`
	OrgBlog          string `json:"org_blog,omitempty"`
	Website          string `json:"website,omitempty"`

	Signals            []RawSignal            `json:"signals"`
	ReposScanned       []RepoMeta             `json:"repos_scanned"`
	Contributors       map[string]Contributor `json:"contributors,omitempty"`
	FrustrationSignals []FrustrationSignal    `json:"frustration_signals,omitempty"`
}
