package help

const QuickstartYAML = `# replay-analyzer Quick Start

inputs:
  url: "Full replay.json URL of a public collection"
  org_collection: "--org <org-id> --collection <collection-id> (canonical id, not the slug)"

commands:
  basic_report: |
    replay-analyzer analyze "https://app.browsertrix.com/api/orgs/<org-id>/collections/<collection-id>/public/replay.json"

  by_ids: |
    replay-analyzer analyze --org <org-id> --collection <collection-id> --print

  full_analysis: |
    replay-analyzer analyze --org <org-id> --collection <collection-id> --fetch-pages --json analysis.json

  yaml_export: |
    replay-analyzer analyze <url> --json analysis.yaml --format yaml

  title_languages: |
    replay-analyzer analyze <url> --fetch-pages --detect-language --print

  scheduled_job_metrics: |
    replay-analyzer analyze <url> --fetch-pages --metrics-file /var/lib/node_exporter/replay.prom

  compare_two_exports: |
    replay-analyzer compare last-week.json today.json

  history: |
    replay-analyzer history record analysis.json
    replay-analyzer history list
    replay-analyzer history diff
    replay-analyzer history trend --dimension domain example.org

exit_codes:
  0: "Report produced (possibly from inline pages only)"
  1: "Manifest could not be fetched or parsed; nothing written"
  2: "Invalid invocation, configuration or output path"

troubleshooting:
  - "HTTP 4xx for --collection: pass the canonical collection id (UUID), not its slug"
  - "HTML instead of JSON: the collection is not public or the URL points at the web UI"
  - "Page list unavailable: the report still covers inline pages and says so in OVERVIEW"
`
