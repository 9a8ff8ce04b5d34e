package database

const schema = `
create table if not exists groups (
	id         text primary key,
	name       text not null,
	icon       text not null default '',
	preset     text not null default '',
	owner_id   text not null,
	created_at timestamptz not null default now()
);

create table if not exists group_members (
	group_id   text not null references groups(id) on delete cascade,
	user_id    text not null,
	role       text not null default 'member',
	invited_by text,
	joined_at  timestamptz not null default now(),
	primary key (group_id, user_id)
);

create table if not exists group_statuses (
	group_id   text not null references groups(id) on delete cascade,
	user_id    text not null,
	status     text not null,
	emoji      text,
	image      text,
	expires_at timestamptz,
	updated_at timestamptz not null default now(),
	primary key (group_id, user_id)
);

create table if not exists group_polls (
	id         text primary key,
	group_id   text not null references groups(id) on delete cascade,
	question   text not null,
	created_by text not null,
	created_at timestamptz not null default now()
);

create table if not exists group_poll_options (
	id         text primary key,
	poll_id    text not null references group_polls(id) on delete cascade,
	label      text not null,
	position   int not null,
	created_at timestamptz not null default now()
);

create table if not exists group_poll_votes (
	poll_id   text not null references group_polls(id) on delete cascade,
	option_id text not null references group_poll_options(id) on delete cascade,
	user_id   text not null,
	primary key (poll_id, option_id, user_id)
);

create table if not exists group_lists (
	id         text primary key,
	group_id   text not null references groups(id) on delete cascade,
	title      text not null,
	created_by text not null,
	created_at timestamptz not null default now()
);

create table if not exists group_list_items (
	id         text primary key,
	list_id    text not null references group_lists(id) on delete cascade,
	label      text not null,
	completed  boolean not null default false,
	position   int not null,
	created_at timestamptz not null default now()
);

create index if not exists group_statuses_updated_idx on group_statuses (group_id, updated_at desc);
create index if not exists group_polls_group_idx on group_polls (group_id, created_at desc);
create index if not exists group_lists_group_idx on group_lists (group_id, created_at desc);
create index if not exists group_list_items_list_idx on group_list_items (list_id, position);
`
