package sqlinline

const QCreateGenerationJobsSchema = `--sql b978c135-3fe7-4a2b-8daa-8510ec46741c
create table if not exists generation_jobs (
    id text primary key,
    user_id text not null,
    campaign_id text not null default '',
    job_type text not null,
    status text not null,
    script text not null,
    avatar_id text not null,
    voice_id text not null,
    prompt_template_id text not null default '',
    tone_settings jsonb not null default '{}'::jsonb,
    generation_settings jsonb not null default '{}'::jsonb,
    output_video_url text,
    output_audio_url text,
    thumbnail_url text,
    duration_seconds integer,
    file_size_bytes bigint,
    cost double precision,
    error_message text,
    processing_started_at timestamptz,
    processing_completed_at timestamptz,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now(),
    attempt integer not null default 0
);
alter table generation_jobs add column if not exists attempt integer not null default 0;
create index if not exists generation_jobs_user_created_idx on generation_jobs (user_id, created_at desc);
create index if not exists generation_jobs_status_created_idx on generation_jobs (status, created_at);
create table if not exists integration_tokens (
    id uuid primary key default gen_random_uuid(),
    provider text not null unique,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QInsertGenerationJob = `--sql 0448530e-c408-42e9-afd1-45a009c35677
insert into generation_jobs (
    id, user_id, campaign_id, job_type, status, script, avatar_id, voice_id,
    prompt_template_id, tone_settings, generation_settings, created_at, updated_at
)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb, $12, $12);
`

const generationJobColumns = `id, user_id, campaign_id, job_type, status, script, avatar_id, voice_id,
    prompt_template_id, tone_settings, generation_settings,
    output_video_url, output_audio_url, thumbnail_url, duration_seconds, file_size_bytes, cost,
    error_message, processing_started_at, processing_completed_at, created_at, updated_at, attempt`

const QSelectGenerationJob = `--sql 5f1b36c6-64ee-41d3-a6ac-20c089389f0f
select ` + generationJobColumns + `
from generation_jobs
where id = $1;
`

// QListGenerationJobs filters on optional user, campaign and status ($1-$3,
// empty string disables a filter). $5 selects oldest-first ordering.
const QListGenerationJobs = `--sql 1f4af926-ea4f-441c-a980-522c2ffddb05
select ` + generationJobColumns + `
from generation_jobs
where ($1::text = '' or user_id = $1::text)
  and ($2::text = '' or campaign_id = $2::text)
  and ($3::text = '' or status = $3::text)
order by
    case when $5::boolean then created_at end asc,
    created_at desc
limit $4;
`

// QSwapGenerationJob writes the full mutable state only when the stored
// status still equals $2 and the stored attempt still equals $15.
const QSwapGenerationJob = `--sql 5c274bfa-0769-4b62-b612-4b71a1ddf554
update generation_jobs
set status = $3,
    output_video_url = $4,
    output_audio_url = $5,
    thumbnail_url = $6,
    duration_seconds = $7,
    file_size_bytes = $8,
    cost = $9,
    error_message = $10,
    processing_started_at = $11,
    processing_completed_at = $12,
    updated_at = $13,
    attempt = $14
where id = $1 and status = $2 and attempt = $15;
`
